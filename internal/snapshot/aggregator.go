package snapshot

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"coinoracle/internal/metrics"
	"coinoracle/internal/provider"
	"coinoracle/internal/reconcile"
)

// Aggregator runs one aggregation cycle: fan out to every source
// concurrently, wait for all to settle, then reconcile per ticker.
// Source failures degrade to missing data; they never fail the cycle.
type Aggregator struct {
	PriceA      provider.PriceSource
	PriceB      provider.PriceSource
	Sentiment   provider.SentimentSource
	TVL         provider.TVLSource
	Stablecoins provider.StablecoinSource
	Gas         provider.GasSource

	// Tickers is the default tracked set, reconciled in this order.
	Tickers []string
	// FetchTimeout bounds each cycle's upstream fetches.
	FetchTimeout time.Duration

	Metrics *metrics.Metrics
}

// Aggregate builds a snapshot for the aggregator's tracked tickers.
func (a *Aggregator) Aggregate(ctx context.Context) *Snapshot {
	return a.AggregateTickers(ctx, a.Tickers)
}

// AggregateTickers builds a snapshot for an explicit ticker set. Tickers are
// normalized to upper case; order is preserved into the price book.
func (a *Aggregator) AggregateTickers(ctx context.Context, tickers []string) *Snapshot {
	started := time.Now()
	if a.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.FetchTimeout)
		defer cancel()
	}

	normalized := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			normalized = append(normalized, t)
		}
	}

	var (
		quotesA, quotesB map[string]provider.SourceQuote
		sentiment        *provider.Sentiment
		tvl              []provider.ChainTVL
		stablecoins      []provider.Stablecoin
		gas              *provider.GasPrices
	)

	// Every branch returns nil: a flaky upstream must not abort the join.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quotesA = a.fetchQuotes(gctx, a.PriceA, normalized)
		return nil
	})
	g.Go(func() error {
		quotesB = a.fetchQuotes(gctx, a.PriceB, normalized)
		return nil
	})
	g.Go(func() error {
		sentiment = a.fetchSentiment(gctx)
		return nil
	})
	g.Go(func() error {
		tvl = a.fetchTVL(gctx)
		return nil
	})
	g.Go(func() error {
		stablecoins = a.fetchStablecoins(gctx)
		return nil
	})
	g.Go(func() error {
		gas = a.fetchGas(gctx)
		return nil
	})
	_ = g.Wait()

	book := NewPriceBook()
	for _, t := range normalized {
		merged := reconcile.Merge(t, quoteFor(quotesA, t), quoteFor(quotesB, t))
		if merged != nil {
			book.Set(*merged)
		}
	}

	now := time.Now().UTC()
	snap := &Snapshot{
		Timestamp:   now.Unix(),
		ISOTime:     now.Format(time.RFC3339),
		Prices:      book,
		FearGreed:   sentiment,
		TVL:         tvl,
		Stablecoins: stablecoins,
		Gas:         gas,
	}
	log.WithFields(log.Fields{
		"tickers":  len(normalized),
		"priced":   book.Len(),
		"duration": time.Since(started).Round(time.Millisecond),
	}).Info("aggregation cycle complete")
	return snap
}

func (a *Aggregator) fetchQuotes(ctx context.Context, src provider.PriceSource, tickers []string) map[string]provider.SourceQuote {
	if src == nil {
		return nil
	}
	quotes, err := src.Quotes(ctx, tickers)
	if err != nil {
		a.degrade(src.Name(), err)
		return nil
	}
	return quotes
}

func (a *Aggregator) fetchSentiment(ctx context.Context) *provider.Sentiment {
	if a.Sentiment == nil {
		return nil
	}
	s, err := a.Sentiment.Current(ctx)
	if err != nil {
		a.degrade("feargreed", err)
		return nil
	}
	return s
}

func (a *Aggregator) fetchTVL(ctx context.Context) []provider.ChainTVL {
	if a.TVL == nil {
		return nil
	}
	chains, err := a.TVL.Chains(ctx)
	if err != nil {
		a.degrade("tvl", err)
		return nil
	}
	return chains
}

func (a *Aggregator) fetchStablecoins(ctx context.Context) []provider.Stablecoin {
	if a.Stablecoins == nil {
		return nil
	}
	coins, err := a.Stablecoins.Stablecoins(ctx)
	if err != nil {
		a.degrade("stablecoins", err)
		return nil
	}
	return coins
}

func (a *Aggregator) fetchGas(ctx context.Context) *provider.GasPrices {
	if a.Gas == nil {
		return nil
	}
	gas, err := a.Gas.Gas(ctx)
	if err != nil {
		a.degrade("gas", err)
		return nil
	}
	return gas
}

// degrade records an upstream failure as "no data from this source".
func (a *Aggregator) degrade(source string, err error) {
	log.WithError(err).WithField("source", source).Warn("upstream fetch failed")
	a.Metrics.ObserveUpstreamError(source)
}

func quoteFor(m map[string]provider.SourceQuote, ticker string) *provider.SourceQuote {
	if m == nil {
		return nil
	}
	q, ok := m[ticker]
	if !ok {
		return nil
	}
	return &q
}
