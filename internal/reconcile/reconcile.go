// Package reconcile merges independent price observations for one asset into
// a single confidence-scored value.
package reconcile

import (
	"fmt"
	"math"

	"coinoracle/internal/provider"
)

// Price is the merged result for one asset.
type Price struct {
	Ticker        string   `json:"ticker"`
	Price         float64  `json:"price"`
	SourceCount   int      `json:"source_count"`
	Sources       []string `json:"sources"`
	Confidence    int      `json:"confidence"`
	DivergenceBps int      `json:"divergence_bps"`
	Warning       string   `json:"warning,omitempty"`
	Change24h     *float64 `json:"change_24h,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	// DataHash is attached lazily at the response boundary, never stored
	// in the cached snapshot.
	DataHash string `json:"data_hash,omitempty"`
}

const (
	// singleSourceConfidence reflects the uncertainty of an unconfirmed
	// observation.
	singleSourceConfidence = 60
	// divergenceWarnBps is the divergence above which a warning is attached.
	divergenceWarnBps = 300
)

// confidenceForDivergence maps divergence in basis points to a confidence
// score. Monotonic: closer agreement, higher confidence.
func confidenceForDivergence(bps int) int {
	switch {
	case bps <= 10:
		return 99
	case bps <= 50:
		return 95
	case bps <= 100:
		return 85
	case bps <= divergenceWarnBps:
		return 70
	default:
		return 40
	}
}

// Merge reconciles up to two source quotes for ticker. A nil quote means
// that source produced no observation. With no quotes at all the result is
// nil: the asset is simply absent, not an error.
//
// With both quotes present the merged price is their arithmetic mean and
// divergence is measured in basis points of that mean. 24h change and market
// cap are carried from whichever single source supplies them, never averaged.
func Merge(ticker string, a, b *provider.SourceQuote) *Price {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return singleSource(ticker, b)
	case b == nil:
		return singleSource(ticker, a)
	}

	mean := (a.Price + b.Price) / 2
	bps := int(math.Round(math.Abs(a.Price-b.Price) / mean * 10000))
	p := &Price{
		Ticker:        ticker,
		Price:         mean,
		SourceCount:   2,
		Sources:       []string{a.Source, b.Source},
		Confidence:    confidenceForDivergence(bps),
		DivergenceBps: bps,
		Change24h:     pickChange(a, b),
		MarketCap:     pickMarketCap(a, b),
	}
	if bps > divergenceWarnBps {
		p.Warning = fmt.Sprintf("sources diverge by %d bps", bps)
	}
	return p
}

func singleSource(ticker string, q *provider.SourceQuote) *Price {
	return &Price{
		Ticker:      ticker,
		Price:       q.Price,
		SourceCount: 1,
		Sources:     []string{q.Source},
		Confidence:  singleSourceConfidence,
		Change24h:   q.Change24h,
		MarketCap:   q.MarketCap,
	}
}

func pickChange(a, b *provider.SourceQuote) *float64 {
	if a.Change24h != nil {
		return a.Change24h
	}
	return b.Change24h
}

func pickMarketCap(a, b *provider.SourceQuote) *float64 {
	if a.MarketCap != nil {
		return a.MarketCap
	}
	return b.MarketCap
}
