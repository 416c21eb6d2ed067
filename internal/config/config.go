package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// WordPress / ACF backend.
	WPAPIURL       string        `mapstructure:"WP_API_URL"`
	ACFPageID      int           `mapstructure:"ACF_PAGE_ID"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	CredentialKey string        `mapstructure:"CREDENTIAL_KEY"`

	// Redis configuration. Empty address keeps credentials in memory.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	// Save history. Empty URL disables it.
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	HistoryRetentionDays int    `mapstructure:"HISTORY_RETENTION_DAYS"`

	LoginRatePerMin int      `mapstructure:"LOGIN_RATE_PER_MIN"`
	AllowedOrigins  []string `mapstructure:"ALLOWED_ORIGINS"`
	// Proxies whose X-Forwarded-For is believed. Empty means use the socket address.
	TrustedProxies  []string `mapstructure:"TRUSTED_PROXIES"`
}

var defaults = map[string]any{
	"APP_PORT":               "8080",
	"ENV":                    "development",
	"LOG_LEVEL":              "",
	"WP_API_URL":             "",
	"ACF_PAGE_ID":            984,
	"REQUEST_TIMEOUT":        "15s",
	"JWT_SECRET":             "",
	"SESSION_TTL":            "24h",
	"CREDENTIAL_KEY":         "",
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_AUTH_DB":          1,
	"DATABASE_URL":           "",
	"HISTORY_RETENTION_DAYS": 90,
	"LOGIN_RATE_PER_MIN":     10,
	"ALLOWED_ORIGINS":        "*",
	"TRUSTED_PROXIES":        "",
}

// Load reads .env (if present), an optional config.yaml and the environment, in
// increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("No .env file found")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.WPAPIURL = strings.TrimRight(cfg.WPAPIURL, "/")
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)
	cfg.TrustedProxies = splitList(cfg.TrustedProxies)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.WPAPIURL == "" {
		return fmt.Errorf("WP_API_URL not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyNets parses TRUSTED_PROXIES. Entries are CIDRs or single addresses.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// env vars arrive as a single comma separated string
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}
