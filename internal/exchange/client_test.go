package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(baseURL string) *Client {
	c := NewClient("test-key", "", baseURL, zerolog.Nop())
	c.retryDelay = time.Millisecond
	return c
}

func TestGetKlinesParsesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-MBX-APIKEY") != "test-key" {
			t.Error("missing API key header")
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %s", got)
		}
		w.Write([]byte(`[
			[1700000000000, "100.5", "101.0", "99.5", "100.8", "1234.5", 1700003599999],
			[1700003600000, "100.8", "102.0", "100.0", "101.5", "987.6", 1700007199999]
		]`))
	}))
	defer srv.Close()

	candles, err := testClient(srv.URL).GetKlines(context.Background(), "BTCUSDT", "1h", 2)
	if err != nil {
		t.Fatalf("GetKlines failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}
	if candles[0].Timestamp != 1700000000 {
		t.Errorf("timestamp = %d, want seconds 1700000000", candles[0].Timestamp)
	}
	if candles[0].Open != 100.5 || candles[0].Close != 100.8 || candles[0].Volume != 1234.5 {
		t.Errorf("bad candle parse: %+v", candles[0])
	}
}

func TestGetFailsFastOnClientError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetKlines(context.Background(), "NOPE", "1h", 10)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, 4xx must not be retried", got)
	}
}

func TestGetRetriesOnServerError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).GetKlines(context.Background(), "BTCUSDT", "1h", 10); err != nil {
		t.Fatalf("expected recovery on the third attempt: %v", err)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).GetKlines(context.Background(), "BTCUSDT", "1h", 10); err == nil {
		t.Fatal("expected failure after retries")
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("requests = %d, want maxRetries", got)
	}
}

func TestGetAggTradesParsesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"a":1,"p":"100.0","q":"2.5","T":1700000001000,"m":false},
			{"a":2,"p":"100.1","q":"1.0","T":1700000002000,"m":true}
		]`))
	}))
	defer srv.Close()

	trades, err := testClient(srv.URL).GetAggTrades(context.Background(), "BTCUSDT", 0, 1)
	if err != nil {
		t.Fatalf("GetAggTrades failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	if trades[0].Quantity != 2.5 || trades[0].IsBuyerMaker {
		t.Errorf("bad trade parse: %+v", trades[0])
	}
	if !trades[1].IsBuyerMaker {
		t.Error("second trade must be buyer-maker")
	}
}

func TestTradeDeltaSigns(t *testing.T) {
	trades := []AggTrade{
		{Quantity: 2.0, IsBuyerMaker: false}, // buy
		{Quantity: 3.0, IsBuyerMaker: true},  // sell
		{Quantity: 0.5, IsBuyerMaker: false}, // buy
	}
	if got := TradeDelta(trades); got != -0.5 {
		t.Errorf("delta = %v, want -0.5", got)
	}
	if got := TradeDelta(nil); got != 0 {
		t.Errorf("empty delta = %v, want 0", got)
	}
}
