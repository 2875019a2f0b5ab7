package signal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/indicators"
	"crypto-signal-scanner/internal/keylevels"
	"crypto-signal-scanner/internal/market"
	"crypto-signal-scanner/internal/structure"
)

// CandleProvider supplies OHLCV candles in ascending time order.
type CandleProvider interface {
	GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error)
}

// CVDProvider supplies cumulative volume delta points aligned to candles.
type CVDProvider interface {
	GetCVD(ctx context.Context, symbol, timeframe string, limit int) ([]market.CVDPoint, error)
}

// LevelCache caches per-symbol key levels between scans.
type LevelCache interface {
	Get(symbol string) (keylevels.Levels, bool)
	Set(symbol string, levels keylevels.Levels)
}

// Config tunes one engine instance.
type Config struct {
	Symbols         []string
	ReferenceSymbol string
	CandleLimit     int
	SwingWindow     int
	ZoneTolerance   float64
	MinTouches      int
	Lookback        int
	ProfileBins     int
	MaxSignals      int
}

// DefaultConfig returns the standard scan parameters.
func DefaultConfig() Config {
	return Config{
		ReferenceSymbol: "BTCUSDT",
		CandleLimit:     200,
		SwingWindow:     5,
		ZoneTolerance:   0.005,
		MinTouches:      2,
		Lookback:        100,
		ProfileBins:     20,
		MaxSignals:      2,
	}
}

// Engine runs full scan cycles: reference gate first, then per-symbol
// evaluation, scoring, ranking, and risk levels. A failure on one symbol
// never aborts the scan.
type Engine struct {
	cfg       Config
	candles   CandleProvider
	cvd       CVDProvider
	cache     LevelCache
	analyzer  *structure.Analyzer
	keyLevels *keylevels.Calculator
	btcFilter *BTCFilter
	detector  *Detector
	scorer    *Scorer
	now       func() time.Time
	logger    zerolog.Logger
}

// NewEngine wires an engine. A nil clock defaults to time.Now; a nil cache
// disables level caching.
func NewEngine(cfg Config, candles CandleProvider, cvd CVDProvider, cache LevelCache, now func() time.Time, logger zerolog.Logger) *Engine {
	if cfg.ReferenceSymbol == "" {
		cfg.ReferenceSymbol = "BTCUSDT"
	}
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = 200
	}
	if cfg.MaxSignals <= 0 {
		cfg.MaxSignals = 2
	}
	if now == nil {
		now = time.Now
	}
	analyzer := structure.NewAnalyzer(cfg.SwingWindow)
	return &Engine{
		cfg:       cfg,
		candles:   candles,
		cvd:       cvd,
		cache:     cache,
		analyzer:  analyzer,
		keyLevels: keylevels.NewCalculator(cfg.ProfileBins),
		btcFilter: NewBTCFilter(analyzer, now, logger),
		detector:  NewDetector(logger),
		scorer:    NewScorer(logger),
		now:       now,
		logger:    logger.With().Str("component", "signal_engine").Logger(),
	}
}

// Scan evaluates the given symbols (falling back to the configured list) and
// returns at most MaxSignals signals, ranked by score descending.
func (e *Engine) Scan(ctx context.Context, symbols []string) ([]Signal, error) {
	scanID := uuid.New().String()
	started := e.now()
	if len(symbols) == 0 {
		symbols = e.cfg.Symbols
	}

	log := e.logger.With().Str("scan_id", scanID).Logger()
	log.Info().Int("symbols", len(symbols)).Msg("scan started")

	frame4h, frame1h, err := e.loadFrames(ctx, e.cfg.ReferenceSymbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", e.cfg.ReferenceSymbol).Msg("reference data unavailable, skipping scan")
		return []Signal{}, nil
	}

	btcCtx, err := e.btcFilter.AnalyzeContext(frame4h, frame1h)
	if err != nil {
		log.Warn().Err(err).Msg("reference analysis failed, skipping scan")
		return []Signal{}, nil
	}
	if !btcCtx.ShouldTrade {
		log.Info().Str("trend", btcCtx.Trend).Str("volatility", btcCtx.Volatility).
			Msg("reference gate closed, no signals this cycle")
		return []Signal{}, nil
	}

	var signals []Signal
	for _, symbol := range symbols {
		symSignals, err := e.evaluateSymbol(ctx, symbol, btcCtx)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("symbol evaluation failed")
			continue
		}
		signals = append(signals, symSignals...)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Score > signals[j].Score
	})
	if len(signals) > e.cfg.MaxSignals {
		signals = signals[:e.cfg.MaxSignals]
	}

	log.Info().
		Int("signals", len(signals)).
		Dur("elapsed", e.now().Sub(started)).
		Msg("scan finished")
	return signals, nil
}

func (e *Engine) evaluateSymbol(ctx context.Context, symbol string, btcCtx *BTCContext) ([]Signal, error) {
	frame4h, frame1h, err := e.loadFrames(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := e.analyzer.DetectSwingPoints(frame4h); err != nil {
		return nil, err
	}
	supports, resistances, err := e.analyzer.IdentifySupportResistance(frame4h, e.cfg.ZoneTolerance, e.cfg.MinTouches, e.cfg.Lookback)
	if err != nil {
		return nil, err
	}
	trend, err := e.analyzer.DetermineTrend(frame4h, 20)
	if err != nil {
		return nil, err
	}
	mc := MarketContext{Supports: supports, Resistances: resistances, Trend: trend}

	cvd1h, err := e.loadCVD(ctx, symbol, "1h", frame1h.Candles)
	if err != nil {
		return nil, err
	}

	levels, err := e.symbolLevels(symbol, frame1h.Candles)
	if err != nil {
		return nil, err
	}

	var signals []Signal
	for _, setup := range []*Setup{
		e.detector.DetectLongSetup(frame4h, frame1h, cvd1h, mc),
		e.detector.DetectShortSetup(frame4h, frame1h, cvd1h, mc),
	} {
		if setup == nil {
			continue
		}
		in := ScoreInput{
			Symbol:      symbol,
			Setup:       setup,
			BTC:         btcCtx,
			Price:       frame1h.LastClose(),
			KeyLevels:   levels,
			VWAP:        indicators.LastValid(frame1h.VWAPSeries),
			SessionVWAP: indicators.LastValid(frame1h.SessionVWAP),
			EMA50:       indicators.LastValid(frame1h.EMA[50]),
			Candles:     frame1h.Candles,
		}
		bd := e.scorer.Score(in)
		if !bd.ShouldAlert {
			continue
		}
		signals = append(signals, e.buildSignal(symbol, setup, bd, btcCtx, frame1h, levels))
	}
	return signals, nil
}

func (e *Engine) buildSignal(symbol string, setup *Setup, bd ScoreBreakdown, btcCtx *BTCContext, frame1h *indicators.Frame, levels keylevels.Levels) Signal {
	price := frame1h.LastClose()
	atr := indicators.LastValid(frame1h.ATRSeries)
	rl := computeRiskLevels(symbol, setup.Direction, price, setup, atr)

	now := e.now()
	return Signal{
		Symbol:                symbol,
		Direction:             setup.Direction,
		Score:                 bd.FinalScore,
		Confidence:            bd.Confidence,
		EntryPrice:            rl.entry,
		StopLoss:              rl.stop,
		TakeProfit1:           rl.tp1,
		TakeProfit2:           rl.tp2,
		TakeProfit3:           rl.tp3,
		RiskPercent:           rl.riskPercent,
		SuggestedPositionSize: positionSize(bd.Confidence),
		BTCTrend:              btcCtx.Trend,
		SessionQuality:        btcCtx.SessionQuality,
		Timestamp:             now,
		ValidUntil:            now.Add(time.Hour),
		Reasons:               setup.Reasons,
		ATRValue:              atr,
		ADXValue:              indicators.LastValid(frame1h.ADXSeries),
		RSIValue:              indicators.LastValid(frame1h.RSISeries),
		Breakdown:             bd,
		KeyLevels:             levels,
	}
}

// loadFrames fetches and enriches the 4h and 1h frames for a symbol.
func (e *Engine) loadFrames(ctx context.Context, symbol string) (frame4h, frame1h *indicators.Frame, err error) {
	frame4h, err = e.loadFrame(ctx, symbol, "4h")
	if err != nil {
		return nil, nil, err
	}
	frame1h, err = e.loadFrame(ctx, symbol, "1h")
	if err != nil {
		return nil, nil, err
	}
	return frame4h, frame1h, nil
}

func (e *Engine) loadFrame(ctx context.Context, symbol, timeframe string) (*indicators.Frame, error) {
	candles, err := e.candles.GetCandles(ctx, symbol, timeframe, e.cfg.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("get %s %s candles: %w", symbol, timeframe, err)
	}
	frame, err := indicators.Enrich(candles, indicators.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("enrich %s %s candles: %w", symbol, timeframe, err)
	}
	return frame, nil
}

func (e *Engine) loadCVD(ctx context.Context, symbol, timeframe string, candles []market.Candle) ([]float64, error) {
	if e.cvd == nil {
		return nil, nil
	}
	points, err := e.cvd.GetCVD(ctx, symbol, timeframe, e.cfg.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("get %s %s cvd: %w", symbol, timeframe, err)
	}
	return market.AlignCVD(candles, points), nil
}

// symbolLevels returns the cached key levels for a symbol, computing and
// caching them on a miss.
func (e *Engine) symbolLevels(symbol string, candles []market.Candle) (keylevels.Levels, error) {
	if e.cache != nil {
		if levels, ok := e.cache.Get(symbol); ok {
			return levels, nil
		}
	}
	levels, err := e.keyLevels.Calculate(candles, "1h")
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(symbol, levels)
	}
	return levels, nil
}
