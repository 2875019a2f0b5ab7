package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/market"
)

type memStore struct {
	candles map[string][]market.Candle
	cvd     map[string][]market.CVDPoint
}

func newMemStore() *memStore {
	return &memStore{
		candles: make(map[string][]market.Candle),
		cvd:     make(map[string][]market.CVDPoint),
	}
}

func (s *memStore) SaveCandles(_ context.Context, symbol, timeframe string, candles []market.Candle) error {
	s.candles[symbol+"/"+timeframe] = candles
	return nil
}

func (s *memStore) SaveCVD(_ context.Context, symbol, timeframe string, points []market.CVDPoint) error {
	s.cvd[symbol+"/"+timeframe] = points
	return nil
}

func TestCollectorRefreshStoresCandlesAndCVD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/klines":
			fmt.Fprint(w, `[
				[1700000000000, "100", "101", "99", "100.5", "10", 0],
				[1700003600000, "100.5", "102", "100", "101.5", "12", 0]
			]`)
		case "/api/v3/aggTrades":
			fmt.Fprint(w, `[{"a":1,"p":"100","q":"3.0","T":1700000001000,"m":false}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := newMemStore()
	collector := NewCollector(testClient(srv.URL), store, []string{"BTCUSDT"}, []string{"1h"}, 2, 2, zerolog.Nop())

	if err := collector.Refresh(context.Background(), "BTCUSDT", "1h"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	candles := store.candles["BTCUSDT/1h"]
	if len(candles) != 2 {
		t.Fatalf("stored %d candles, want 2", len(candles))
	}
	points := store.cvd["BTCUSDT/1h"]
	if len(points) != 2 {
		t.Fatalf("stored %d cvd points, want 2", len(points))
	}
	if points[0].CVDPeriod != 3.0 {
		t.Errorf("period delta = %v, want 3.0", points[0].CVDPeriod)
	}
	if points[1].CVDCumulative != 6.0 {
		t.Errorf("cumulative = %v, want 6.0", points[1].CVDCumulative)
	}
}

func TestCollectorRefreshWithoutCVD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/aggTrades" {
			t.Error("cvdDepth 0 must not fetch trades")
		}
		fmt.Fprint(w, `[[1700000000000, "100", "101", "99", "100.5", "10", 0]]`)
	}))
	defer srv.Close()

	store := newMemStore()
	collector := NewCollector(testClient(srv.URL), store, []string{"BTCUSDT"}, []string{"1h"}, 1, 0, zerolog.Nop())

	if err := collector.Refresh(context.Background(), "BTCUSDT", "1h"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(store.cvd) != 0 {
		t.Error("no cvd rows expected")
	}
}

func TestCountGaps(t *testing.T) {
	candles := []market.Candle{
		{Timestamp: 0}, {Timestamp: 3600}, {Timestamp: 10800}, {Timestamp: 14400},
	}
	if got := countGaps(candles, "1h"); got != 1 {
		t.Errorf("gaps = %d, want 1", got)
	}
	if got := countGaps(candles, "bogus"); got != 0 {
		t.Errorf("unknown timeframe gaps = %d, want 0", got)
	}
}
