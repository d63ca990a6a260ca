package resolution

import "testing"

// TestScanTiers verifies each pattern family produces a candidate in the right tier
func TestScanTiers(t *testing.T) {
	s := NewScanner(DefaultOptions())

	testCases := []struct {
		name     string
		text     string
		phrase   string
		wantTier Tier
		wantQty  int
	}{
		{"Unit qualified", "10 qty of blue jeans", "blue jeans", TierExplicit, 10},
		{"Pieces for", "4 pcs for blue jeans", "blue jeans", TierExplicit, 4},
		{"Times", "3 x blue jeans", "blue jeans", TierExplicit, 3},
		{"Of", "12 of blue jeans", "blue jeans", TierExplicit, 12},
		{"For about", "blue jeans for about 7", "blue jeans", TierExplicit, 7},
		{"Number before", "send 5 red shirts", "red shirts", TierAdjacent, 5},
		{"Number after", "red shirts 8", "red shirts", TierAdjacent, 8},
		{"Colon separator", "red shirts: 9", "red shirts", TierAdjacent, 9},
		{"Dash separator", "sugar - 10", "sugar", TierAdjacent, 10},
		{"Spelled out", "need about twelve red shirts please", "red shirts", TierWorded, 12},
		{"Nearby digits", "need blue jeans asap 3", "blue jeans", TierProximity, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			candidates := s.Scan(tc.text, tc.phrase)
			if len(candidates) == 0 {
				t.Fatalf("Scan(%q, %q) returned no candidates", tc.text, tc.phrase)
			}

			found := false
			for _, c := range candidates {
				if c.Tier == tc.wantTier && c.Quantity == tc.wantQty {
					found = true
				}
			}
			if !found {
				t.Errorf("Scan(%q, %q) = %+v, want a %s candidate with quantity %d",
					tc.text, tc.phrase, candidates, tc.wantTier, tc.wantQty)
			}
		})
	}
}

// TestScanKeepsEveryMatch verifies same-tier matches are all retained with their offsets
func TestScanKeepsEveryMatch(t *testing.T) {
	s := NewScanner(DefaultOptions())

	candidates := s.Scan("red shirts 3 actually red shirts 10", "red shirts")
	if len(candidates) != 2 {
		t.Fatalf("Scan() returned %d candidates, want 2: %+v", len(candidates), candidates)
	}

	want := []Candidate{
		{Position: 0, Quantity: 3, Tier: TierAdjacent},
		{Position: 22, Quantity: 10, Tier: TierAdjacent},
	}
	for i, c := range candidates {
		if c != want[i] {
			t.Errorf("candidates[%d] = %+v, want %+v", i, c, want[i])
		}
	}
}

// TestScanProximityIsLastResort verifies stray digits are ignored once another tier matched
func TestScanProximityIsLastResort(t *testing.T) {
	s := NewScanner(DefaultOptions())

	candidates := s.Scan("two blue jeans asap 3", "blue jeans")
	if len(candidates) != 1 {
		t.Fatalf("Scan() returned %d candidates, want 1: %+v", len(candidates), candidates)
	}
	if candidates[0].Tier != TierWorded || candidates[0].Quantity != 2 {
		t.Errorf("candidate = %+v, want WORDED quantity 2", candidates[0])
	}
}

// TestScanProximityRadius verifies digits beyond the radius are not candidates
func TestScanProximityRadius(t *testing.T) {
	s := NewScanner(DefaultOptions())

	candidates := s.Scan("blue jeans are the best in town 3", "blue jeans")
	if len(candidates) != 0 {
		t.Errorf("Scan() = %+v, want no candidates", candidates)
	}
}

// TestScanDiscardsLongDigitRuns verifies quantities over the digit cap are dropped
func TestScanDiscardsLongDigitRuns(t *testing.T) {
	s := NewScanner(DefaultOptions())

	if candidates := s.Scan("200000000 blue jeans", "blue jeans"); len(candidates) != 0 {
		t.Errorf("Scan() = %+v, want no candidates", candidates)
	}

	if candidates := s.Scan("9999999 blue jeans", "blue jeans"); len(candidates) != 1 || candidates[0].Quantity != 9999999 {
		t.Errorf("Scan() = %+v, want one candidate of 9999999", candidates)
	}
}

// TestScanQuotesPhrase verifies regular expression metacharacters in names are literal
func TestScanQuotesPhrase(t *testing.T) {
	s := NewScanner(DefaultOptions())

	candidates := s.Scan("6 c++ primer (2nd ed.)", "c++ primer (2nd ed.)")
	if len(candidates) == 0 || candidates[0].Quantity != 6 {
		t.Errorf("Scan() = %+v, want ADJACENT quantity 6", candidates)
	}
}

// TestScanEmptyInput verifies empty text or phrase yields nothing
func TestScanEmptyInput(t *testing.T) {
	s := NewScanner(DefaultOptions())

	if c := s.Scan("", "blue jeans"); c != nil {
		t.Errorf("Scan(empty text) = %+v, want nil", c)
	}
	if c := s.Scan("10 blue jeans", ""); c != nil {
		t.Errorf("Scan(empty phrase) = %+v, want nil", c)
	}
}

// TestScanCountsCharacters verifies positions and the proximity radius count characters, not bytes
func TestScanCountsCharacters(t *testing.T) {
	s := NewScanner(DefaultOptions())

	candidates := s.Scan("éé 5 red shirts", "red shirts")
	if len(candidates) != 1 || candidates[0].Position != 3 || candidates[0].Quantity != 5 {
		t.Errorf("Scan() = %+v, want one candidate at position 3", candidates)
	}

	// eleven characters between the name and the digit, but twenty bytes
	near := s.Scan("red shirts ééééééééé 4", "red shirts")
	if len(near) != 1 || near[0].Tier != TierProximity || near[0].Quantity != 4 {
		t.Errorf("Scan() = %+v, want PROXIMITY quantity 4", near)
	}

	far := s.Scan("red shirts éééééééééé 4", "red shirts")
	if len(far) != 0 {
		t.Errorf("Scan() = %+v, want no candidates beyond the radius", far)
	}
}

// TestScanWordedUsesNearestNumber verifies number words for neighbouring products are not added together
func TestScanWordedUsesNearestNumber(t *testing.T) {
	s := NewScanner(DefaultOptions())

	testCases := []struct {
		name    string
		text    string
		phrase  string
		wantQty int
	}{
		{"First product", "two red shirts and three blue jeans", "red shirts", 2},
		{"Second product", "two red shirts and three blue jeans", "blue jeans", 3},
		{"Compound with and", "one hundred and five red shirts", "red shirts", 105},
		{"Number after the name", "red shirts maybe twenty five", "red shirts", 25},
		{"Dozen", "a dozen red shirts", "red shirts", 12},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			candidates := s.Scan(tc.text, tc.phrase)
			if len(candidates) != 1 || candidates[0].Tier != TierWorded || candidates[0].Quantity != tc.wantQty {
				t.Errorf("Scan(%q, %q) = %+v, want one WORDED candidate of %d", tc.text, tc.phrase, candidates, tc.wantQty)
			}
		})
	}
}
