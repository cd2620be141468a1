// Package snapshot builds and represents one full aggregation result.
package snapshot

import (
	"bytes"
	"encoding/json"
	"time"

	"coinoracle/internal/provider"
	"coinoracle/internal/reconcile"
)

// PriceBook maps tickers to reconciled prices while preserving insertion
// order, which encoding/json would otherwise sort away.
type PriceBook struct {
	tickers  []string
	byTicker map[string]reconcile.Price
}

func NewPriceBook() *PriceBook {
	return &PriceBook{byTicker: make(map[string]reconcile.Price)}
}

// Set records p under its ticker, appending to the order on first insert.
func (b *PriceBook) Set(p reconcile.Price) {
	if _, ok := b.byTicker[p.Ticker]; !ok {
		b.tickers = append(b.tickers, p.Ticker)
	}
	b.byTicker[p.Ticker] = p
}

// Get returns a copy of the price for ticker, so callers can attach a hash
// without mutating the shared book.
func (b *PriceBook) Get(ticker string) (reconcile.Price, bool) {
	p, ok := b.byTicker[ticker]
	return p, ok
}

// Tickers returns the insertion order.
func (b *PriceBook) Tickers() []string {
	out := make([]string, len(b.tickers))
	copy(out, b.tickers)
	return out
}

func (b *PriceBook) Len() int { return len(b.tickers) }

// MarshalJSON renders the book as a JSON object in insertion order.
func (b *PriceBook) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range b.tickers {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(b.byTicker[t])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores the book preserving the object's key order.
func (b *PriceBook) UnmarshalJSON(data []byte) error {
	b.tickers = nil
	b.byTicker = make(map[string]reconcile.Price)
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return &json.UnmarshalTypeError{Value: "non-object", Type: nil}
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		ticker := keyTok.(string)
		var p reconcile.Price
		if err := dec.Decode(&p); err != nil {
			return err
		}
		p.Ticker = ticker
		b.Set(p)
	}
	_, err = dec.Token()
	return err
}

// Snapshot is the full aggregated payload of one cycle. Immutable once
// constructed; the cache hands the same instance to every reader within the
// TTL window.
type Snapshot struct {
	Timestamp   int64                 `json:"timestamp"`
	ISOTime     string                `json:"iso_time"`
	Prices      *PriceBook            `json:"prices"`
	FearGreed   *provider.Sentiment   `json:"fear_greed"`
	TVL         []provider.ChainTVL   `json:"tvl"`
	Stablecoins []provider.Stablecoin `json:"stablecoins"`
	Gas         *provider.GasPrices   `json:"gas"`
}

// CapturedAt returns the capture instant.
func (s *Snapshot) CapturedAt() time.Time {
	return time.Unix(s.Timestamp, 0).UTC()
}
