package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"coinoracle/internal/reconcile"
	"coinoracle/internal/snapshot"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Headers are gone; nothing left to do but drop the connection.
		return
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// withHashes returns a copy of the book with each entry's data hash
// attached. The cached book itself is never touched, so concurrent readers
// of the same snapshot are unaffected; recomputation is deterministic.
func withHashes(book *snapshot.PriceBook, ts int64) *snapshot.PriceBook {
	out := snapshot.NewPriceBook()
	for _, ticker := range book.Tickers() {
		p, _ := book.Get(ticker)
		p.DataHash = reconcile.DataHash(p.Ticker, p.Price, p.Sources, ts)
		out.Set(p)
	}
	return out
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}
	out := *snap
	out.Prices = withHashes(snap.Prices, snap.Timestamp)
	writeJSON(w, http.StatusOK, &out)
}

type priceResponse struct {
	reconcile.Price
	Timestamp int64  `json:"timestamp"`
	ISOTime   string `json:"iso_time"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	asset := strings.ToUpper(mux.Vars(r)["asset"])
	snap, err := s.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}
	p, ok := snap.Prices.Get(asset)
	if !ok {
		writeError(w, http.StatusNotFound, "asset not tracked: "+asset)
		return
	}
	p.DataHash = reconcile.DataHash(p.Ticker, p.Price, p.Sources, snap.Timestamp)
	writeJSON(w, http.StatusOK, priceResponse{Price: p, Timestamp: snap.Timestamp, ISOTime: snap.ISOTime})
}

type pricesResponse struct {
	Timestamp int64               `json:"timestamp"`
	ISOTime   string              `json:"iso_time"`
	Prices    *snapshot.PriceBook `json:"prices"`
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}
	writeJSON(w, http.StatusOK, pricesResponse{Timestamp: snap.Timestamp, ISOTime: snap.ISOTime, Prices: snap.Prices})
}

// Domain endpoints bypass the snapshot cache and hit the source fresh.
// Upstream failure is not a request failure: it degrades to a marker.

type availableResponse struct {
	Available bool `json:"available"`
	Data      any  `json:"data,omitempty"`
}

func (s *Server) handleFearGreed(w http.ResponseWriter, r *http.Request) {
	if s.Sentiment == nil {
		writeJSON(w, http.StatusOK, availableResponse{})
		return
	}
	sentiment, err := s.Sentiment.Current(r.Context())
	if err != nil {
		s.Metrics.ObserveUpstreamError("feargreed")
		writeJSON(w, http.StatusOK, availableResponse{})
		return
	}
	writeJSON(w, http.StatusOK, availableResponse{Available: true, Data: sentiment})
}

func (s *Server) handleTVL(w http.ResponseWriter, r *http.Request) {
	if s.TVL == nil {
		writeJSON(w, http.StatusOK, availableResponse{})
		return
	}
	chains, err := s.TVL.Chains(r.Context())
	if err != nil {
		s.Metrics.ObserveUpstreamError("tvl")
		writeJSON(w, http.StatusOK, availableResponse{})
		return
	}
	writeJSON(w, http.StatusOK, availableResponse{Available: true, Data: chains})
}

func (s *Server) handleStablecoins(w http.ResponseWriter, r *http.Request) {
	if s.Stablecoins == nil {
		writeJSON(w, http.StatusOK, availableResponse{})
		return
	}
	coins, err := s.Stablecoins.Stablecoins(r.Context())
	if err != nil {
		s.Metrics.ObserveUpstreamError("stablecoins")
		writeJSON(w, http.StatusOK, availableResponse{})
		return
	}
	writeJSON(w, http.StatusOK, availableResponse{Available: true, Data: coins})
}

func (s *Server) handleGas(w http.ResponseWriter, r *http.Request) {
	if s.Gas == nil {
		writeJSON(w, http.StatusOK, availableResponse{})
		return
	}
	gas, err := s.Gas.Gas(r.Context())
	if err != nil {
		s.Metrics.ObserveUpstreamError("gas")
		writeJSON(w, http.StatusOK, availableResponse{})
		return
	}
	writeJSON(w, http.StatusOK, availableResponse{Available: true, Data: gas})
}

type verifyResponse struct {
	Hash         string `json:"hash"`
	Contract     string `json:"contract,omitempty"`
	Instructions string `json:"instructions"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	writeJSON(w, http.StatusOK, verifyResponse{
		Hash:     hash,
		Contract: s.AttestationContract,
		Instructions: "Call attestations(bytes32) on the contract with this hash. " +
			"A non-zero timestamp proves the value was attested at that time. " +
			"No verification is performed by this endpoint.",
	})
}

type healthResponse struct {
	Status      string   `json:"status"`
	UptimeSec   int64    `json:"uptime_sec"`
	CacheAgeSec *float64 `json:"cache_age_sec"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", UptimeSec: int64(time.Since(s.started).Seconds())}
	if age, ok := s.Cache.Age(); ok {
		sec := age.Seconds()
		resp.CacheAgeSec = &sec
	}
	writeJSON(w, http.StatusOK, resp)
}
