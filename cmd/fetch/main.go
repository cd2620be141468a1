// Command fetch runs one aggregation cycle and prints the snapshot as JSON.
// Useful for eyeballing upstream behavior without standing up the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"coinoracle/internal/config"
	"coinoracle/internal/httpx"
	"coinoracle/internal/provider/coingecko"
	"coinoracle/internal/provider/defillama"
	"coinoracle/internal/provider/defillamaadapter"
	"coinoracle/internal/provider/ethgas"
	"coinoracle/internal/provider/feargreed"
	"coinoracle/internal/snapshot"
)

func main() {
	tickersFlag := flag.String("tickers", "", "comma separated tickers (default: configured set)")
	timeoutFlag := flag.Duration("timeout", 15*time.Second, "overall fetch timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	tickers := cfg.Tickers
	if *tickersFlag != "" {
		tickers = strings.Split(*tickersFlag, ",")
	}

	client := httpx.New(*timeoutFlag)
	llamaClient, err := defillama.NewClient()
	if err != nil {
		log.WithError(err).Fatal("defillama client")
	}
	llama := defillamaadapter.New(defillamaadapter.Config{}, llamaClient)

	aggregator := &snapshot.Aggregator{
		PriceA:       coingecko.New(coingecko.Config{Endpoint: cfg.Upstream.CoinGeckoEndpoint}, client),
		PriceB:       llama,
		Sentiment:    feargreed.New(feargreed.Config{Endpoint: cfg.Upstream.FearGreedEndpoint}, client),
		TVL:          llama,
		Stablecoins:  llama,
		Gas:          ethgas.New(ethgas.Config{Endpoint: cfg.Upstream.EtherscanEndpoint, APIKey: cfg.Upstream.EtherscanAPIKey}, client),
		Tickers:      tickers,
		FetchTimeout: *timeoutFlag,
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()
	snap := aggregator.AggregateTickers(ctx, tickers)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		log.WithError(err).Fatal("encode snapshot")
	}
}
