package resolution

import "strings"

// NumberWords maps cardinal words to values. Values are added to the running
// amount; Multipliers scale it and flush it into the total.
type NumberWords struct {
	Values      map[string]int
	Multipliers map[string]int
}

// EnglishNumberWords returns the English cardinal table up to the thousands
func EnglishNumberWords() NumberWords {
	return NumberWords{
		Values: map[string]int{
			"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
			"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
			"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
			"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
			"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
			"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
		},
		Multipliers: map[string]int{
			"dozen":    12,
			"hundred":  100,
			"thousand": 1000,
		},
	}
}

// Contains reports whether word, or any hyphen-joined part of it, is a number word
func (nw NumberWords) Contains(word string) bool {
	for _, part := range strings.Split(word, "-") {
		part = strings.Trim(part, ".!?:'\"()[]")
		if _, ok := nw.Values[part]; ok {
			return true
		}
		if _, ok := nw.Multipliers[part]; ok {
			return true
		}
	}
	return false
}

// NearestRun returns the run of number words closest to a mention, given the
// words before it (in text order) and the words after it. A run may span "and",
// as in "one hundred and five". On equal distance the run before the mention wins.
func (nw NumberWords) NearestRun(before, after []string) []string {
	gapBefore := -1
	for d := 0; d < len(before); d++ {
		if nw.Contains(before[len(before)-1-d]) {
			gapBefore = d
			break
		}
	}
	gapAfter := -1
	for d := 0; d < len(after); d++ {
		if nw.Contains(after[d]) {
			gapAfter = d
			break
		}
	}

	switch {
	case gapBefore >= 0 && (gapAfter < 0 || gapBefore <= gapAfter):
		end := len(before) - gapBefore
		start := end - 1
		for start > 0 && nw.joinsRun(before[start-1]) {
			start--
		}
		return before[start:end]
	case gapAfter >= 0:
		start, end := gapAfter, gapAfter+1
		for end < len(after) && nw.joinsRun(after[end]) {
			end++
		}
		return after[start:end]
	}
	return nil
}

func (nw NumberWords) joinsRun(word string) bool {
	return word == "and" || nw.Contains(word)
}

// Decode converts the number words found in words into an integer.
// Unrecognized words are skipped. The boolean is false when no word was recognized.
func (nw NumberWords) Decode(words []string) (int, bool) {
	total, current := 0, 0
	seen := false

	for _, raw := range words {
		for _, word := range strings.Split(raw, "-") {
			word = strings.Trim(word, ".!?:'\"()[]")
			if word == "" {
				continue
			}

			if value, ok := nw.Values[word]; ok {
				current += value
				seen = true
				continue
			}

			if mult, ok := nw.Multipliers[word]; ok {
				if current == 0 {
					current = 1
				}
				total += current * mult
				current = 0
				seen = true
			}
		}
	}

	if !seen {
		return 0, false
	}
	return total + current, true
}
