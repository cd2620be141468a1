package reconcile

import (
	"strings"
	"testing"

	"coinoracle/internal/provider"
)

func quote(source string, price float64) *provider.SourceQuote {
	return &provider.SourceQuote{Ticker: "X", Price: price, Source: source}
}

func TestMerge_TwoSources_MeanAndDivergence(t *testing.T) {
	p := Merge("BTC", quote("coingecko", 67000), quote("defillama", 67005))
	if p == nil {
		t.Fatal("want result, got nil")
	}
	if p.Price != 67002.5 {
		t.Fatalf("merged price = %v, want 67002.5", p.Price)
	}
	if p.DivergenceBps >= 10 {
		t.Fatalf("divergence = %d, want < 10", p.DivergenceBps)
	}
	if p.Confidence != 99 {
		t.Fatalf("confidence = %d, want 99", p.Confidence)
	}
	if p.SourceCount != 2 || len(p.Sources) != 2 {
		t.Fatalf("sources = %d/%v", p.SourceCount, p.Sources)
	}
	if p.Sources[0] != "coingecko" || p.Sources[1] != "defillama" {
		t.Fatalf("source order = %v", p.Sources)
	}
	if p.Warning != "" {
		t.Fatalf("unexpected warning %q", p.Warning)
	}
}

func TestMerge_ConfidenceTableBoundaries(t *testing.T) {
	cases := []struct {
		bps        int
		confidence int
		warning    bool
	}{
		{0, 99, false},
		{10, 99, false},
		{11, 95, false},
		{50, 95, false},
		{51, 85, false},
		{100, 85, false},
		{101, 70, false},
		{300, 70, false},
		{301, 40, true},
		{2500, 40, true},
	}
	for _, tc := range cases {
		if got := confidenceForDivergence(tc.bps); got != tc.confidence {
			t.Fatalf("confidence(%d) = %d, want %d", tc.bps, got, tc.confidence)
		}
		// Cross-check through Merge: construct prices with the exact
		// divergence d around mean 10000 (a = mean - d/2, b = mean + d/2).
		mean := 10000.0
		delta := mean * float64(tc.bps) / 10000
		p := Merge("X", quote("a", mean-delta/2), quote("b", mean+delta/2))
		if p.DivergenceBps != tc.bps {
			t.Fatalf("bps = %d, want %d", p.DivergenceBps, tc.bps)
		}
		if p.Confidence != tc.confidence {
			t.Fatalf("merge confidence at %d bps = %d, want %d", tc.bps, p.Confidence, tc.confidence)
		}
		if tc.warning != (p.Warning != "") {
			t.Fatalf("warning presence at %d bps = %q", tc.bps, p.Warning)
		}
	}
}

func TestMerge_HighDivergence_WarningNamesBps(t *testing.T) {
	// |100-105|/102.5 * 10000 = 487.8 -> 488
	p := Merge("SOL", quote("coingecko", 100), quote("defillama", 105))
	if p.DivergenceBps != 488 {
		t.Fatalf("divergence = %d, want 488", p.DivergenceBps)
	}
	if p.Confidence != 40 {
		t.Fatalf("confidence = %d, want 40", p.Confidence)
	}
	if !strings.Contains(p.Warning, "488") {
		t.Fatalf("warning %q does not name the bps figure", p.Warning)
	}
}

func TestMerge_MidDivergence(t *testing.T) {
	// |2000-2020|/2010 * 10000 = 99.5 -> 100 -> confidence 85
	p := Merge("ETH", quote("coingecko", 2000), quote("defillama", 2020))
	if p.Price != 2010 {
		t.Fatalf("merged price = %v, want 2010", p.Price)
	}
	if p.DivergenceBps != 100 {
		t.Fatalf("divergence = %d, want 100", p.DivergenceBps)
	}
	if p.Confidence != 85 {
		t.Fatalf("confidence = %d, want 85", p.Confidence)
	}
}

func TestMerge_SingleSource(t *testing.T) {
	for _, tc := range []struct{ a, b *provider.SourceQuote }{
		{quote("coingecko", 0.45), nil},
		{nil, quote("defillama", 0.45)},
	} {
		p := Merge("ADA", tc.a, tc.b)
		if p == nil {
			t.Fatal("want result, got nil")
		}
		if p.Price != 0.45 || p.SourceCount != 1 || len(p.Sources) != 1 {
			t.Fatalf("unexpected single-source result: %+v", p)
		}
		if p.Confidence != 60 || p.DivergenceBps != 0 || p.Warning != "" {
			t.Fatalf("unexpected single-source scoring: %+v", p)
		}
	}
}

func TestMerge_NoSources_Absent(t *testing.T) {
	if p := Merge("UNKNOWN", nil, nil); p != nil {
		t.Fatalf("want nil for zero sources, got %+v", p)
	}
}

func TestMerge_AncillaryFieldsCarriedNotAveraged(t *testing.T) {
	change := 2.5
	mcap := 1.3e12
	a := quote("coingecko", 67000)
	a.Change24h = &change
	a.MarketCap = &mcap
	b := quote("defillama", 67005)

	p := Merge("BTC", a, b)
	if p.Change24h == nil || *p.Change24h != change {
		t.Fatalf("change24h = %v, want %v", p.Change24h, change)
	}
	if p.MarketCap == nil || *p.MarketCap != mcap {
		t.Fatalf("marketCap = %v, want %v", p.MarketCap, mcap)
	}

	// Carried from the other side as well.
	p = Merge("BTC", b, a)
	if p.Change24h == nil || *p.Change24h != change {
		t.Fatalf("change24h carried from second source = %v", p.Change24h)
	}
}

func TestDataHash_DeterministicAndSensitive(t *testing.T) {
	sources := []string{"coingecko", "defillama"}
	h1 := DataHash("BTC", 67002.5, sources, 1724668800)
	h2 := DataHash("BTC", 67002.5, sources, 1724668800)
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %s vs %s", h1, h2)
	}
	if !strings.HasPrefix(h1, HashPrefix) {
		t.Fatalf("hash %q lacks prefix %q", h1, HashPrefix)
	}
	if len(h1) != len(HashPrefix)+64 {
		t.Fatalf("hash length = %d", len(h1))
	}

	variants := []string{
		DataHash("ETH", 67002.5, sources, 1724668800),
		DataHash("BTC", 67002.51, sources, 1724668800),
		DataHash("BTC", 67002.5, []string{"coingecko"}, 1724668800),
		DataHash("BTC", 67002.5, []string{"defillama", "coingecko"}, 1724668800),
		DataHash("BTC", 67002.5, sources, 1724668801),
	}
	seen := map[string]bool{h1: true}
	for _, v := range variants {
		if seen[v] {
			t.Fatalf("hash collision for distinct inputs: %s", v)
		}
		seen[v] = true
	}
}
