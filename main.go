package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-scanner/config"
	"crypto-signal-scanner/internal/api"
	"crypto-signal-scanner/internal/auth"
	"crypto-signal-scanner/internal/cache"
	"crypto-signal-scanner/internal/exchange"
	"crypto-signal-scanner/internal/logging"
	sigengine "crypto-signal-scanner/internal/signal"
	"crypto-signal-scanner/internal/storage"
	"crypto-signal-scanner/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
	})
	logger.Info().Msg("crypto signal scanner starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vaultClient, err := vault.NewClient(vault.Config{
		Enabled:           cfg.VaultConfig.Enabled,
		Address:           cfg.VaultConfig.Address,
		Token:             cfg.VaultConfig.Token,
		SecretPath:        cfg.VaultConfig.SecretPath,
		FallbackAPIKey:    cfg.BinanceConfig.APIKey,
		FallbackSecretKey: cfg.BinanceConfig.SecretKey,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("vault client init failed")
	}
	creds, err := vaultClient.ExchangeCredentials(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("exchange credentials unavailable, using public endpoints only")
	}

	db, err := storage.NewDB(storage.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	repo := storage.NewRepository(db)

	var levelCache sigengine.LevelCache
	if cfg.RedisConfig.Enabled {
		levelCache = cache.NewRedisCache(cache.RedisConfig{
			Enabled:  true,
			Address:  cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		}, cfg.ScannerConfig.CacheTTLDuration(), logger)
	} else {
		levelCache = cache.NewTTLCache(cfg.ScannerConfig.CacheTTLDuration(), nil)
	}

	client := exchange.NewClient(creds.APIKey, creds.SecretKey, cfg.BinanceConfig.BaseURL, logger)
	collector := exchange.NewCollector(client, repo,
		cfg.TradingConfig.Symbols, cfg.TradingConfig.Timeframes,
		cfg.TradingConfig.CandleLimit, cfg.ScannerConfig.CVDDepth, logger)

	engine := sigengine.NewEngine(sigengine.Config{
		Symbols:         cfg.TradingConfig.Symbols,
		ReferenceSymbol: cfg.TradingConfig.ReferenceSymbol,
		CandleLimit:     cfg.TradingConfig.CandleLimit,
		SwingWindow:     cfg.ScannerConfig.SwingWindow,
		ZoneTolerance:   cfg.ScannerConfig.ZoneTolerance,
		MinTouches:      cfg.ScannerConfig.MinTouches,
		Lookback:        cfg.ScannerConfig.Lookback,
		ProfileBins:     cfg.ScannerConfig.ProfileBins,
		MaxSignals:      cfg.ScannerConfig.MaxSignals,
	}, repo, repo, levelCache, nil, logger)

	jwtManager := auth.NewJWTManager(cfg.AuthConfig.JWTSecret,
		time.Duration(cfg.AuthConfig.TokenDuration)*time.Minute)

	server := api.NewServer(api.ServerConfig{
		Host:              cfg.ServerConfig.Host,
		Port:              cfg.ServerConfig.Port,
		AllowedOrigins:    cfg.ServerConfig.AllowedOrigins,
		AuthEnabled:       cfg.AuthConfig.Enabled,
		AdminUser:         cfg.AuthConfig.AdminUser,
		AdminPasswordHash: cfg.AuthConfig.AdminPasswordHash,
	}, engine, repo, jwtManager, logger)

	// Initial data load so the first scan has candles to work with.
	collector.RefreshAll(ctx)

	go runCollector(ctx, collector, time.Duration(cfg.ScannerConfig.CollectInterval)*time.Second)
	go runScanner(ctx, engine, server, cfg.TradingConfig.Symbols,
		time.Duration(cfg.ScannerConfig.ScanInterval)*time.Second, logger)

	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("API server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server shutdown error")
	}
}

func runCollector(ctx context.Context, collector *exchange.Collector, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collector.RefreshAll(ctx)
		}
	}
}

func runScanner(ctx context.Context, engine *sigengine.Engine, server *api.Server, symbols []string, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			signals, err := engine.Scan(ctx, symbols)
			if err != nil {
				logger.Error().Err(err).Msg("scan cycle failed")
				continue
			}
			server.PublishSignals(signals, time.Now())
		}
	}
}
