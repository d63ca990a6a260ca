package resolution

import (
	"reflect"
	"sync"
	"testing"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultOptions())
	if err != nil {
		t.Fatalf("NewResolver() failed: %v", err)
	}
	return r
}

// TestResolveScenarios verifies end-to-end resolution of typical order messages
func TestResolveScenarios(t *testing.T) {
	r := newTestResolver(t)

	testCases := []struct {
		name    string
		message string
		catalog []string
		want    []ResolvedOrderLine
	}{
		{
			name:    "Explicit and adjacent",
			message: "I'd like to order 10 qty of Blue Jeans and 5 Red Shirts",
			catalog: []string{"Blue Jeans", "Red Shirts"},
			want:    []ResolvedOrderLine{{"Blue Jeans", 10}, {"Red Shirts", 5}},
		},
		{
			name:    "Spelled out quantity",
			message: "need about twelve Red Shirts please",
			catalog: []string{"Red Shirts"},
			want:    []ResolvedOrderLine{{"Red Shirts", 12}},
		},
		{
			name:    "Later correction wins",
			message: "Red Shirts 3, actually Red Shirts 10",
			catalog: []string{"Red Shirts"},
			want:    []ResolvedOrderLine{{"Red Shirts", 10}},
		},
		{
			name:    "Fuzzy mention without quantity",
			message: "thanks for the shirts",
			catalog: []string{"Red Shirts"},
			want:    []ResolvedOrderLine{{"Red Shirts", 1}},
		},
		{
			name:    "Empty message",
			message: "",
			catalog: []string{"Red Shirts"},
			want:    []ResolvedOrderLine{},
		},
		{
			name:    "Digit run over the cap",
			message: "200000000 Blue Jeans",
			catalog: []string{"Blue Jeans"},
			want:    []ResolvedOrderLine{{"Blue Jeans", 1}},
		},
		{
			name:    "Fuzzy mention with quantity",
			message: "could you send 4 shirts",
			catalog: []string{"Red Shirts"},
			want:    []ResolvedOrderLine{{"Red Shirts", 4}},
		},
		{
			name:    "Typo corrected before scanning",
			message: "10 qyt of Blue Jeans",
			catalog: []string{"Blue Jeans"},
			want:    []ResolvedOrderLine{{"Blue Jeans", 10}},
		},
		{
			name:    "Bulleted purchase order",
			message: "• Blue Jeans - 20\n• Red Shirts: 15",
			catalog: []string{"Blue Jeans", "Red Shirts"},
			want:    []ResolvedOrderLine{{"Blue Jeans", 20}, {"Red Shirts", 15}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Resolve(tc.message, tc.catalog)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Resolve(%q) = %+v, want %+v", tc.message, got, tc.want)
			}
		})
	}
}

// TestResolveEmptyCatalog verifies an empty catalog yields an empty, non-nil result
func TestResolveEmptyCatalog(t *testing.T) {
	r := newTestResolver(t)

	got := r.Resolve("10 Blue Jeans", nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Resolve() with empty catalog = %#v, want empty slice", got)
	}
}

// TestResolveNoSpuriousEntries verifies unmentioned products never appear
func TestResolveNoSpuriousEntries(t *testing.T) {
	r := newTestResolver(t)

	got := r.Resolve("10 Blue Jeans", []string{"Green Socks", "Blue Jeans", "Leather Belt"})
	want := []ResolvedOrderLine{{"Blue Jeans", 10}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

// TestResolveSimilarNames verifies a mention counts only for the product it matches best
func TestResolveSimilarNames(t *testing.T) {
	r := newTestResolver(t)

	testCases := []struct {
		name    string
		message string
		catalog []string
		want    []ResolvedOrderLine
	}{
		{
			name:    "Exact mention shadows a similar name",
			message: "10 qty of Blue Jeans",
			catalog: []string{"Red Jeans", "Blue Jeans"},
			want:    []ResolvedOrderLine{{"Blue Jeans", 10}},
		},
		{
			name:    "Similar name listed first",
			message: "5 blue shirts",
			catalog: []string{"Red Shirts", "Blue Shirts"},
			want:    []ResolvedOrderLine{{"Blue Shirts", 5}},
		},
		{
			name:    "Fuzzy mention goes to the best score",
			message: "thanks for the shirts",
			catalog: []string{"Blue Shirts", "Red Shirts"},
			want:    []ResolvedOrderLine{{"Red Shirts", 1}},
		},
		{
			name:    "Both similar products mentioned",
			message: "2 red jeans and 3 blue jeans",
			catalog: []string{"Red Jeans", "Blue Jeans"},
			want:    []ResolvedOrderLine{{"Red Jeans", 2}, {"Blue Jeans", 3}},
		},
		{
			name:    "Duplicate names share a fuzzy mention",
			message: "could you send 4 shirts",
			catalog: []string{"Red Shirts", "RED SHIRTS"},
			want:    []ResolvedOrderLine{{"Red Shirts", 4}, {"RED SHIRTS", 4}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Resolve(tc.message, tc.catalog)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Resolve(%q) = %+v, want %+v", tc.message, got, tc.want)
			}
		})
	}
}

// TestResolveTierPriority verifies a higher tier wins regardless of position
func TestResolveTierPriority(t *testing.T) {
	r := newTestResolver(t)

	testCases := []struct {
		name    string
		message string
		want    int
	}{
		{"Explicit beats later adjacent", "10 qty of Blue Jeans then Blue Jeans 20", 10},
		{"Adjacent beats worded", "five Blue Jeans or maybe 3 Blue Jeans", 3},
		{"Worded beats proximity", "two Blue Jeans asap 3", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Resolve(tc.message, []string{"Blue Jeans"})
			if len(got) != 1 || got[0].Qty != tc.want {
				t.Errorf("Resolve(%q) = %+v, want qty %d", tc.message, got, tc.want)
			}
		})
	}
}

// TestResolveNeverSums verifies same-tier quantities are not added together
func TestResolveNeverSums(t *testing.T) {
	r := newTestResolver(t)

	got := r.Resolve("Red Shirts 2 and Red Shirts 3", []string{"Red Shirts"})
	want := []ResolvedOrderLine{{"Red Shirts", 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

// TestResolveDropsZero verifies a chosen quantity of zero produces no line
func TestResolveDropsZero(t *testing.T) {
	r := newTestResolver(t)

	for _, message := range []string{"0 Red Shirts", "zero Red Shirts"} {
		if got := r.Resolve(message, []string{"Red Shirts"}); len(got) != 0 {
			t.Errorf("Resolve(%q) = %+v, want no lines", message, got)
		}
	}
}

// TestResolveFollowsCatalogOrder verifies output order is catalog order, not mention order
func TestResolveFollowsCatalogOrder(t *testing.T) {
	r := newTestResolver(t)

	got := r.Resolve("10 qty of Blue Jeans and 5 Red Shirts", []string{"Red Shirts", "Blue Jeans"})
	want := []ResolvedOrderLine{{"Red Shirts", 5}, {"Blue Jeans", 10}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

// TestResolveDuplicateCatalogNames verifies duplicates are processed independently
func TestResolveDuplicateCatalogNames(t *testing.T) {
	r := newTestResolver(t)

	got := r.Resolve("5 red shirts", []string{"Red Shirts", "RED SHIRTS"})
	want := []ResolvedOrderLine{{"Red Shirts", 5}, {"RED SHIRTS", 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

// TestResolveIdempotentOnSummary verifies resolving a rendered summary reproduces it
func TestResolveIdempotentOnSummary(t *testing.T) {
	r := newTestResolver(t)
	catalog := []string{"Blue Jeans", "Red Shirts", "Leather Belt"}

	first := r.Resolve("I'd like to order 10 qty of Blue Jeans and 5 Red Shirts, plus a Leather Belt for my husband", catalog)
	if len(first) != 3 {
		t.Fatalf("Resolve() = %+v, want 3 lines", first)
	}

	second := r.Resolve(Render(first), catalog)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve(Render()) = %+v, want %+v", second, first)
	}
}

// TestResolveStrictThreshold verifies a stricter threshold rejects a looser fuzzy mention
func TestResolveStrictThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.FuzzyThreshold = AuthoritativeThreshold
	r, err := NewResolver(opts)
	if err != nil {
		t.Fatalf("NewResolver() failed: %v", err)
	}

	if got := r.Resolve("thanks for the shirts", []string{"Red Shirts"}); len(got) != 0 {
		t.Errorf("Resolve() = %+v, want no lines at threshold 80", got)
	}
}

// TestResolveConcurrent verifies a resolver can be shared across goroutines
func TestResolveConcurrent(t *testing.T) {
	r := newTestResolver(t)
	catalog := []string{"Blue Jeans", "Red Shirts"}
	want := []ResolvedOrderLine{{"Blue Jeans", 10}, {"Red Shirts", 5}}

	var wg sync.WaitGroup
	errs := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := r.Resolve("10 qty of Blue Jeans and 5 Red Shirts", catalog)
			if !reflect.DeepEqual(got, want) {
				errs <- "unexpected result"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}

// TestExplain verifies the reference and candidates are reported for each product
func TestExplain(t *testing.T) {
	r := newTestResolver(t)

	explanations := r.Explain("0 Red Shirts and twelve Blue Jeans", []string{"Blue Jeans", "Red Shirts", "Green Socks"})
	if len(explanations) != 2 {
		t.Fatalf("Explain() returned %d explanations, want 2", len(explanations))
	}

	jeans := explanations[0]
	if jeans.Line == nil || jeans.Line.Qty != 12 {
		t.Errorf("Blue Jeans line = %+v, want qty 12", jeans.Line)
	}

	shirts := explanations[1]
	if shirts.Line != nil {
		t.Errorf("Red Shirts line = %+v, want dropped zero quantity", shirts.Line)
	}
	if !shirts.Reference.Exact {
		t.Error("Red Shirts should be an exact reference")
	}
}

// TestChoose verifies the tie-break rules directly
func TestChoose(t *testing.T) {
	testCases := []struct {
		name       string
		candidates []Candidate
		want       int
		wantOK     bool
	}{
		{"Mentioned without quantity", nil, 1, true},
		{"Highest tier", []Candidate{
			{Position: 30, Quantity: 7, Tier: TierAdjacent},
			{Position: 0, Quantity: 4, Tier: TierExplicit},
		}, 4, true},
		{"Rightmost in tier", []Candidate{
			{Position: 20, Quantity: 9, Tier: TierAdjacent},
			{Position: 5, Quantity: 2, Tier: TierAdjacent},
		}, 9, true},
		{"Zero dropped", []Candidate{{Position: 0, Quantity: 0, Tier: TierAdjacent}}, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Choose(tc.candidates)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("Choose() = %d, %v; want %d, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

// TestNewResolverValidatesOptions verifies out-of-range options are rejected
func TestNewResolverValidatesOptions(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"Threshold above 100", func(o *Options) { o.FuzzyThreshold = 101 }},
		{"Negative threshold", func(o *Options) { o.FuzzyThreshold = -1 }},
		{"Negative window", func(o *Options) { o.WordWindow = -1 }},
		{"Negative radius", func(o *Options) { o.ProximityRadius = -1 }},
		{"Zero digit cap", func(o *Options) { o.MaxDigits = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(&opts)
			if _, err := NewResolver(opts); err == nil {
				t.Error("NewResolver() should reject invalid options")
			}
		})
	}
}
