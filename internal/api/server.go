// Package api exposes the scanner over HTTP: market data queries, on-demand
// scans, the latest signals, and a WebSocket feed of new signals.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/auth"
	"crypto-signal-scanner/internal/keylevels"
	"crypto-signal-scanner/internal/signal"
	"crypto-signal-scanner/internal/storage"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host              string   `json:"host"`
	Port              int      `json:"port"`
	AllowedOrigins    []string `json:"allowed_origins"`
	AuthEnabled       bool     `json:"auth_enabled"`
	AdminUser         string   `json:"admin_user"`
	AdminPasswordHash string   `json:"admin_password_hash"`
}

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     ServerConfig

	engine    *signal.Engine
	repo      *storage.Repository
	keyLevels *keylevels.Calculator
	jwt       *auth.JWTManager
	hub       *WSHub
	logger    zerolog.Logger

	mu          sync.RWMutex
	latest      []signal.Signal
	lastScanned time.Time
}

// NewServer wires the API server. The hub is started by Start.
func NewServer(cfg ServerConfig, engine *signal.Engine, repo *storage.Repository, jwt *auth.JWTManager, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:    gin.New(),
		config:    cfg,
		engine:    engine,
		repo:      repo,
		keyLevels: keylevels.NewCalculator(20),
		jwt:       jwt,
		hub:       NewWSHub(logger),
		logger:    logger.With().Str("component", "api").Logger(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	s.router.Use(cors.New(corsConfig))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/api/health", s.handleHealth)
	s.router.POST("/api/auth/login", s.handleLogin)
	s.router.GET("/ws/signals", s.handleWebSocket)

	protected := s.router.Group("/api")
	if s.config.AuthEnabled {
		protected.Use(s.authMiddleware())
	}
	protected.GET("/market/:symbol/candles", s.handleCandles)
	protected.GET("/market/:symbol/levels", s.handleLevels)
	protected.POST("/signals/scan", s.handleScan)
	protected.GET("/signals/latest", s.handleLatestSignals)
}

// Start runs the hub and HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// PublishSignals stores the latest scan results and broadcasts them to
// WebSocket clients.
func (s *Server) PublishSignals(signals []signal.Signal, scannedAt time.Time) {
	s.mu.Lock()
	s.latest = signals
	s.lastScanned = scannedAt
	s.mu.Unlock()

	for i := range signals {
		s.hub.BroadcastSignal(&signals[i])
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
