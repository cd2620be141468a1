// Package api is the HTTP boundary over the aggregation core. It only
// adapts requests to core calls and serializes results; all non-trivial
// behavior lives in the packages it calls into.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"coinoracle/internal/cache"
	"coinoracle/internal/metrics"
	"coinoracle/internal/provider"
	"coinoracle/internal/ratelimit"
)

// Server carries the owned core objects handlers operate on. Constructed
// once per process and passed by reference, never ambient globals.
type Server struct {
	Cache   *cache.SnapshotCache
	Limiter *ratelimit.SlidingWindow
	Metrics *metrics.Metrics

	// Domain sources are hit fresh per request, bypassing the snapshot
	// cache.
	Sentiment   provider.SentimentSource
	TVL         provider.TVLSource
	Stablecoins provider.StablecoinSource
	Gas         provider.GasSource

	// AttestationContract is shown by /verify; the ledger is never called.
	AttestationContract string

	// MetricsHandler serves /metrics when set (promhttp over the process
	// registry).
	MetricsHandler http.Handler

	started time.Time
}

// Router builds the read-only route table. Non-GET methods on a known path
// get 405, except OPTIONS preflights which succeed with CORS headers.
func (s *Server) Router() http.Handler {
	s.started = time.Now()

	r := mux.NewRouter()
	r.Use(s.logRequests, s.observe, jsonHeaders, gzipResponses, recoverPanic)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Every core-serving route consumes one rate-limit unit; /health and
	// /metrics stay reachable for probes and scrapes.
	r.HandleFunc("/snapshot", s.limited(s.handleSnapshot)).Methods(http.MethodGet)
	r.HandleFunc("/price/{asset}", s.limited(s.handlePrice)).Methods(http.MethodGet)
	r.HandleFunc("/prices", s.limited(s.handlePrices)).Methods(http.MethodGet)
	r.HandleFunc("/fear-greed", s.limited(s.handleFearGreed)).Methods(http.MethodGet)
	r.HandleFunc("/tvl", s.limited(s.handleTVL)).Methods(http.MethodGet)
	r.HandleFunc("/stablecoins", s.limited(s.handleStablecoins)).Methods(http.MethodGet)
	r.HandleFunc("/gas", s.limited(s.handleGas)).Methods(http.MethodGet)
	r.HandleFunc("/verify/{hash}", s.limited(s.handleVerify)).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.MetricsHandler != nil {
		r.Handle("/metrics", s.MetricsHandler).Methods(http.MethodGet)
	}

	return r
}
