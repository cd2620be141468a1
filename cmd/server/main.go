package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"coinoracle/internal/api"
	"coinoracle/internal/cache"
	"coinoracle/internal/config"
	"coinoracle/internal/httpx"
	"coinoracle/internal/metrics"
	"coinoracle/internal/provider/coingecko"
	"coinoracle/internal/provider/defillama"
	"coinoracle/internal/provider/defillamaadapter"
	"coinoracle/internal/provider/ethgas"
	"coinoracle/internal/provider/feargreed"
	"coinoracle/internal/ratelimit"
	"coinoracle/internal/snapshot"
)

// limitedDoer gates a plain http.Client behind a client-side rate limiter,
// for API clients that take an HTTPClient rather than our httpx wrapper.
type limitedDoer struct {
	limiter *rate.Limiter
	client  *http.Client
}

func (d limitedDoer) Do(req *http.Request) (*http.Response, error) {
	if err := d.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return d.client.Do(req)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	if cfg.Attestation.Contract == "" {
		log.Warn("ATTESTATION_CONTRACT not set; /verify will omit the contract address")
	}

	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	upstreamLimit := func() *rate.Limiter {
		burst := int(cfg.Upstream.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		return rate.NewLimiter(rate.Limit(cfg.Upstream.RequestsPerSecond), burst)
	}

	newClient := func() *httpx.Client {
		c := httpx.New(timeout)
		c.Limiter = upstreamLimit()
		return c
	}

	gecko := coingecko.New(coingecko.Config{Endpoint: cfg.Upstream.CoinGeckoEndpoint}, newClient())

	llamaOpts := []defillama.ClientOption{
		defillama.WithHTTPClient(limitedDoer{limiter: upstreamLimit(), client: httpx.New(timeout).HTTP}),
	}
	if cfg.Upstream.DefiLlamaCoinsEndpoint != "" {
		llamaOpts = append(llamaOpts, defillama.WithCoinsBaseURL(cfg.Upstream.DefiLlamaCoinsEndpoint))
	}
	if cfg.Upstream.DefiLlamaAPIEndpoint != "" {
		llamaOpts = append(llamaOpts, defillama.WithAPIBaseURL(cfg.Upstream.DefiLlamaAPIEndpoint))
	}
	if cfg.Upstream.DefiLlamaStablecoinsEndpoint != "" {
		llamaOpts = append(llamaOpts, defillama.WithStablecoinsBaseURL(cfg.Upstream.DefiLlamaStablecoinsEndpoint))
	}
	llamaClient, err := defillama.NewClient(llamaOpts...)
	if err != nil {
		log.WithError(err).Fatal("defillama client")
	}
	llama := defillamaadapter.New(defillamaadapter.Config{}, llamaClient)

	sentiment := feargreed.New(feargreed.Config{Endpoint: cfg.Upstream.FearGreedEndpoint}, newClient())
	gas := ethgas.New(ethgas.Config{
		Endpoint: cfg.Upstream.EtherscanEndpoint,
		APIKey:   cfg.Upstream.EtherscanAPIKey,
	}, newClient())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	aggregator := &snapshot.Aggregator{
		PriceA:       gecko,
		PriceB:       llama,
		Sentiment:    sentiment,
		TVL:          llama,
		Stablecoins:  llama,
		Gas:          gas,
		Tickers:      cfg.Tickers,
		FetchTimeout: timeout,
		Metrics:      m,
	}

	snapCache := cache.New(aggregator, time.Duration(cfg.Cache.TTLSec)*time.Second, m)
	limiter := ratelimit.NewSlidingWindow(cfg.RateLimit.Quota, time.Duration(cfg.RateLimit.WindowSec)*time.Second)

	stop := make(chan struct{})
	limiter.StartPruning(10*time.Minute, stop)

	server := &api.Server{
		Cache:               snapCache,
		Limiter:             limiter,
		Metrics:             m,
		Sentiment:           sentiment,
		TVL:                 llama,
		Stablecoins:         llama,
		Gas:                 gas,
		AttestationContract: cfg.Attestation.Contract,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	close(stop)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
