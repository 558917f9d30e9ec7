package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr      string   `yaml:"listen_addr"`
	DatabasePath    string   `yaml:"database_path"`
	DownloadsDir    string   `yaml:"downloads_dir"`
	ChessComBaseURL string   `yaml:"chesscom_base_url"`
	UserAgent       string   `yaml:"user_agent"`
	ProxyURL        string   `yaml:"proxy_url"`
	RedisURL        string   `yaml:"redis_url"`
	ProfileCacheTTL string   `yaml:"profile_cache_ttl"`
	APIBaseURL      string   `yaml:"api_base_url"` // where the UI reaches the JSON API
	FetchWorkers    int      `yaml:"fetch_concurrency"`
	RefreshSchedule string   `yaml:"refresh_schedule"` // cron expression
	RefreshWindow   string   `yaml:"refresh_window"`
	ExportRetention string   `yaml:"export_retention"`
	Timezone        string   `yaml:"timezone"`
	BannerTimeout   string   `yaml:"banner_timeout"`
	SessionTTL      string   `yaml:"session_ttl"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "chessstats.db"
	}
	if c.DownloadsDir == "" {
		c.DownloadsDir = "downloads"
	}
	if c.ChessComBaseURL == "" {
		c.ChessComBaseURL = "https://api.chess.com/pub"
	}
	if c.UserAgent == "" {
		c.UserAgent = "chess-stats-go/1.0 (Go; +https://github.com/charlie0129/chess-stats-go)"
	}
	if c.ProfileCacheTTL == "" {
		c.ProfileCacheTTL = "10m"
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = "http://127.0.0.1" + portOf(c.ListenAddr)
	}
	if c.FetchWorkers <= 0 {
		c.FetchWorkers = 4
	}
	if c.RefreshSchedule == "" {
		c.RefreshSchedule = "0 */6 * * *"
	}
	if c.RefreshWindow == "" {
		c.RefreshWindow = "168h"
	}
	if c.ExportRetention == "" {
		c.ExportRetention = "24h"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.BannerTimeout == "" {
		c.BannerTimeout = "5s"
	}
	if c.SessionTTL == "" {
		c.SessionTTL = "2h"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// portOf returns ":port" for listen addresses such as ":8000" or "0.0.0.0:8000".
func portOf(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}

func (c *Config) GetTimezone() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) GetProfileCacheTTL() time.Duration {
	return parseDuration(c.ProfileCacheTTL, 10*time.Minute)
}

func (c *Config) GetRefreshWindow() time.Duration {
	return parseDuration(c.RefreshWindow, 7*24*time.Hour)
}

func (c *Config) GetExportRetention() time.Duration {
	return parseDuration(c.ExportRetention, 24*time.Hour)
}

func (c *Config) GetBannerTimeout() time.Duration {
	return parseDuration(c.BannerTimeout, 5*time.Second)
}

func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.SessionTTL, 2*time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
