package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crypto-signal-scanner/internal/market"
)

// Repository reads and writes market data. It implements the candle and CVD
// provider interfaces consumed by the signal engine.
type Repository struct {
	db *DB
}

// NewRepository creates a repository over the given database.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// SaveCandles upserts candles for a symbol and timeframe.
func (r *Repository) SaveCandles(ctx context.Context, symbol, timeframe string, candles []market.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(`
			INSERT INTO ohlcv (symbol, timeframe, timestamp, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (symbol, timeframe, timestamp)
			DO UPDATE SET open = $4, high = $5, low = $6, close = $7, volume = $8`,
			symbol, timeframe, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range candles {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save candles %s %s: %w", symbol, timeframe, err)
		}
	}
	return nil
}

// GetCandles returns the latest limit candles in ascending time order.
func (r *Repository) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM (
			SELECT timestamp, open, high, low, close, volume
			FROM ohlcv
			WHERE symbol = $1 AND timeframe = $2
			ORDER BY timestamp DESC
			LIMIT $3
		) latest
		ORDER BY timestamp ASC`,
		symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("query candles %s %s: %w", symbol, timeframe, err)
	}
	defer rows.Close()

	var candles []market.Candle
	for rows.Next() {
		var c market.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// SaveCVD upserts CVD points for a symbol and timeframe.
func (r *Repository) SaveCVD(ctx context.Context, symbol, timeframe string, points []market.CVDPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			INSERT INTO cvd_data (symbol, timeframe, timestamp, cvd_period, cvd_cumulative)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (symbol, timeframe, timestamp)
			DO UPDATE SET cvd_period = $4, cvd_cumulative = $5`,
			symbol, timeframe, p.Timestamp, p.CVDPeriod, p.CVDCumulative)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save cvd %s %s: %w", symbol, timeframe, err)
		}
	}
	return nil
}

// GetCVD returns the latest limit CVD points in ascending time order.
func (r *Repository) GetCVD(ctx context.Context, symbol, timeframe string, limit int) ([]market.CVDPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT timestamp, cvd_period, cvd_cumulative
		FROM (
			SELECT timestamp, cvd_period, cvd_cumulative
			FROM cvd_data
			WHERE symbol = $1 AND timeframe = $2
			ORDER BY timestamp DESC
			LIMIT $3
		) latest
		ORDER BY timestamp ASC`,
		symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("query cvd %s %s: %w", symbol, timeframe, err)
	}
	defer rows.Close()

	var points []market.CVDPoint
	for rows.Next() {
		var p market.CVDPoint
		if err := rows.Scan(&p.Timestamp, &p.CVDPeriod, &p.CVDCumulative); err != nil {
			return nil, fmt.Errorf("scan cvd point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
