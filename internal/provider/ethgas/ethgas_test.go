package ethgas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinoracle/internal/httpx"
)

func TestGas_ParsesTiers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("module") != "gastracker" || q.Get("action") != "gasoracle" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("apikey") != "test-key" {
			t.Fatalf("missing api key in %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":{"SafeGasPrice":"5","ProposeGasPrice":"8.5","FastGasPrice":"12"}}`))
	}))
	defer srv.Close()

	src := New(Config{Endpoint: srv.URL, APIKey: "test-key"}, httpx.New(2*time.Second))
	gas, err := src.Gas(context.Background())
	if err != nil {
		t.Fatalf("gas: %v", err)
	}
	if gas.Low != 5 || gas.Standard != 8.5 || gas.Fast != 12 {
		t.Fatalf("gas = %+v", gas)
	}
}

func TestGas_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":{}}`))
	}))
	defer srv.Close()

	src := New(Config{Endpoint: srv.URL}, httpx.New(2*time.Second))
	if _, err := src.Gas(context.Background()); err == nil {
		t.Fatal("want error on upstream status 0")
	}
}
