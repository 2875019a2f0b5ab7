// Package config loads scanner configuration from config.json with
// environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LoggingConfig  LoggingConfig  `json:"logging"`
	BinanceConfig  BinanceConfig  `json:"binance"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	VaultConfig    VaultConfig    `json:"vault"`
	TradingConfig  TradingConfig  `json:"trading"`
	ScannerConfig  ScannerConfig  `json:"scanner"`
	ServerConfig   ServerConfig   `json:"server"`
	AuthConfig     AuthConfig     `json:"auth"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // DEBUG, INFO, WARN, ERROR
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // Output as JSON
}

type BinanceConfig struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
	BaseURL   string `json:"base_url"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	SecretPath string `json:"secret_path"`
}

type TradingConfig struct {
	Symbols         []string `json:"symbols"`
	ReferenceSymbol string   `json:"reference_symbol"`
	Timeframes      []string `json:"timeframes"`
	CandleLimit     int      `json:"candle_limit"`
}

type ScannerConfig struct {
	ScanInterval    int     `json:"scan_interval"`    // Seconds between scans
	CollectInterval int     `json:"collect_interval"` // Seconds between data refreshes
	CacheTTL        int     `json:"cache_ttl"`        // Key-level cache TTL in seconds
	SwingWindow     int     `json:"swing_window"`
	ZoneTolerance   float64 `json:"zone_tolerance"`
	MinTouches      int     `json:"min_touches"`
	Lookback        int     `json:"lookback"`
	ProfileBins     int     `json:"profile_bins"`
	MaxSignals      int     `json:"max_signals"`
	CVDDepth        int     `json:"cvd_depth"` // Trailing candles to backfill CVD for
}

type ServerConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type AuthConfig struct {
	Enabled           bool   `json:"enabled"`
	JWTSecret         string `json:"jwt_secret"`
	TokenDuration     int    `json:"token_duration"` // Minutes
	AdminUser         string `json:"admin_user"`
	AdminPasswordHash string `json:"admin_password_hash"`
}

// Load reads config.json (when present) and applies environment overrides.
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", cfg.LoggingConfig.Output)
	if v := os.Getenv("LOG_JSON"); v != "" {
		cfg.LoggingConfig.JSONFormat = v == "true"
	}

	cfg.BinanceConfig.APIKey = getEnvOrDefault("BINANCE_API_KEY", cfg.BinanceConfig.APIKey)
	cfg.BinanceConfig.SecretKey = getEnvOrDefault("BINANCE_SECRET_KEY", cfg.BinanceConfig.SecretKey)
	cfg.BinanceConfig.BaseURL = getEnvOrDefault("BINANCE_BASE_URL", cfg.BinanceConfig.BaseURL)

	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", cfg.DatabaseConfig.Database)
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", cfg.DatabaseConfig.SSLMode)

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		cfg.RedisConfig.Enabled = v == "true"
	}
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)

	if v := os.Getenv("VAULT_ENABLED"); v != "" {
		cfg.VaultConfig.Enabled = v == "true"
	}
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", cfg.VaultConfig.Address)
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", cfg.VaultConfig.SecretPath)

	if v := os.Getenv("TRADING_SYMBOLS"); v != "" {
		cfg.TradingConfig.Symbols = splitAndTrim(v)
	}
	cfg.TradingConfig.ReferenceSymbol = getEnvOrDefault("TRADING_REFERENCE_SYMBOL", cfg.TradingConfig.ReferenceSymbol)

	cfg.ScannerConfig.ScanInterval = getEnvIntOrDefault("SCAN_INTERVAL", cfg.ScannerConfig.ScanInterval)
	cfg.ScannerConfig.CollectInterval = getEnvIntOrDefault("COLLECT_INTERVAL", cfg.ScannerConfig.CollectInterval)
	cfg.ScannerConfig.CacheTTL = getEnvIntOrDefault("LEVEL_CACHE_TTL", cfg.ScannerConfig.CacheTTL)

	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", cfg.ServerConfig.Port)
	if v := os.Getenv("SERVER_ALLOWED_ORIGINS"); v != "" {
		cfg.ServerConfig.AllowedOrigins = splitAndTrim(v)
	}

	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.AuthConfig.Enabled = v == "true"
	}
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AdminUser = getEnvOrDefault("AUTH_ADMIN_USER", cfg.AuthConfig.AdminUser)
	cfg.AuthConfig.AdminPasswordHash = getEnvOrDefault("AUTH_ADMIN_PASSWORD_HASH", cfg.AuthConfig.AdminPasswordHash)
}

func applyDefaults(cfg *Config) {
	if cfg.LoggingConfig.Level == "" {
		cfg.LoggingConfig.Level = "INFO"
	}
	if cfg.LoggingConfig.Output == "" {
		cfg.LoggingConfig.Output = "stdout"
	}
	if cfg.BinanceConfig.BaseURL == "" {
		cfg.BinanceConfig.BaseURL = "https://api.binance.com"
	}
	if cfg.DatabaseConfig.Host == "" {
		cfg.DatabaseConfig.Host = "localhost"
	}
	if cfg.DatabaseConfig.Port == 0 {
		cfg.DatabaseConfig.Port = 5432
	}
	if cfg.DatabaseConfig.SSLMode == "" {
		cfg.DatabaseConfig.SSLMode = "disable"
	}
	if cfg.RedisConfig.Address == "" {
		cfg.RedisConfig.Address = "localhost:6379"
	}
	if cfg.RedisConfig.PoolSize == 0 {
		cfg.RedisConfig.PoolSize = 10
	}
	if len(cfg.TradingConfig.Symbols) == 0 {
		cfg.TradingConfig.Symbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT"}
	}
	if cfg.TradingConfig.ReferenceSymbol == "" {
		cfg.TradingConfig.ReferenceSymbol = "BTCUSDT"
	}
	if len(cfg.TradingConfig.Timeframes) == 0 {
		cfg.TradingConfig.Timeframes = []string{"4h", "1h"}
	}
	if cfg.TradingConfig.CandleLimit == 0 {
		cfg.TradingConfig.CandleLimit = 200
	}
	if cfg.ScannerConfig.ScanInterval == 0 {
		cfg.ScannerConfig.ScanInterval = 300
	}
	if cfg.ScannerConfig.CollectInterval == 0 {
		cfg.ScannerConfig.CollectInterval = 120
	}
	if cfg.ScannerConfig.CacheTTL == 0 {
		cfg.ScannerConfig.CacheTTL = 3600
	}
	if cfg.ScannerConfig.SwingWindow == 0 {
		cfg.ScannerConfig.SwingWindow = 5
	}
	if cfg.ScannerConfig.ZoneTolerance == 0 {
		cfg.ScannerConfig.ZoneTolerance = 0.005
	}
	if cfg.ScannerConfig.MinTouches == 0 {
		cfg.ScannerConfig.MinTouches = 2
	}
	if cfg.ScannerConfig.Lookback == 0 {
		cfg.ScannerConfig.Lookback = 100
	}
	if cfg.ScannerConfig.ProfileBins == 0 {
		cfg.ScannerConfig.ProfileBins = 20
	}
	if cfg.ScannerConfig.MaxSignals == 0 {
		cfg.ScannerConfig.MaxSignals = 2
	}
	if cfg.ScannerConfig.CVDDepth == 0 {
		cfg.ScannerConfig.CVDDepth = 30
	}
	if cfg.ServerConfig.Host == "" {
		cfg.ServerConfig.Host = "0.0.0.0"
	}
	if cfg.ServerConfig.Port == 0 {
		cfg.ServerConfig.Port = 8080
	}
	if cfg.AuthConfig.TokenDuration == 0 {
		cfg.AuthConfig.TokenDuration = 60
	}
	if cfg.AuthConfig.AdminUser == "" {
		cfg.AuthConfig.AdminUser = "admin"
	}
}

// CacheTTLDuration returns the key-level cache TTL.
func (c *ScannerConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
