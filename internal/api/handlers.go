package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crypto-signal-scanner/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	s.mu.RLock()
	lastScanned := s.lastScanned
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"last_scan":    lastScanned,
		"ws_clients":   s.hub.ClientCount(),
		"auth_enabled": s.config.AuthEnabled,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	if req.Username != s.config.AdminUser ||
		auth.CheckPassword(s.config.AdminPasswordHash, req.Password) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.jwt.GenerateToken(req.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleCandles(c *gin.Context) {
	symbol := c.Param("symbol")
	timeframe := c.DefaultQuery("timeframe", "1h")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	candles, err := s.repo.GetCandles(c.Request.Context(), symbol, timeframe, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("candle query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"candles":   candles,
	})
}

func (s *Server) handleLevels(c *gin.Context) {
	symbol := c.Param("symbol")
	timeframe := c.DefaultQuery("timeframe", "1h")

	candles, err := s.repo.GetCandles(c.Request.Context(), symbol, timeframe, 500)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("candle query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if len(candles) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data for symbol"})
		return
	}

	levels, err := s.keyLevels.Calculate(candles, timeframe)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"levels":    levels,
	})
}

type scanRequest struct {
	Symbols []string `json:"symbols"`
}

func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	signals, err := s.engine.Scan(c.Request.Context(), req.Symbols)
	if err != nil {
		s.logger.Error().Err(err).Msg("scan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}

	s.PublishSignals(signals, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(signals),
		"signals": signals,
	})
}

func (s *Server) handleLatestSignals(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"scanned_at": s.lastScanned,
		"count":      len(s.latest),
		"signals":    s.latest,
	})
}
