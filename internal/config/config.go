// Package config holds the server configuration for mailprobed, loaded
// from a yaml file with environment variable overrides on top.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the server binary.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DNS    DNSConfig    `yaml:"dns"`
	SMTP   SMTPConfig   `yaml:"smtp"`
	Probe  ProbeConfig  `yaml:"probe"`
	Rate   RateConfig   `yaml:"rate_limits"`
	Lists  ListsConfig  `yaml:"lists"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RequestTimeoutSeconds bounds one validation request end to end.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// Addr returns the host:port the server listens on.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// RequestTimeout returns the per-request timeout as a duration.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DNSConfig holds name resolution settings.
type DNSConfig struct {
	TimeoutSeconds  int `yaml:"timeout_seconds"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	// PublicResolver is the host:port queried directly on the wire when
	// the system resolver yields nothing. "off" disables it.
	PublicResolver string `yaml:"public_resolver"`
}

// Timeout returns the lookup timeout as a duration.
func (c DNSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the cache lifetime as a duration.
func (c DNSConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SMTPConfig holds the probe's network identity.
type SMTPConfig struct {
	HeloDomain            string `yaml:"helo_domain"`
	MailFrom              string `yaml:"mail_from"`
	Port                  string `yaml:"port"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	CommandTimeoutSeconds int    `yaml:"command_timeout_seconds"`
	Socks5Addr            string `yaml:"socks5_addr"`
	Socks5User            string `yaml:"socks5_user"`
	Socks5Pass            string `yaml:"socks5_pass"`
}

// ConnectTimeout returns the dial timeout as a duration.
func (c SMTPConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// CommandTimeout returns the SMTP dialogue timeout as a duration.
func (c SMTPConfig) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// ProbeConfig holds probe policy.
type ProbeConfig struct {
	RejectOnUncertainty bool `yaml:"reject_on_uncertainty"`
	TransientRetries    int  `yaml:"transient_retries"`
	RetryBackoffMillis  int  `yaml:"retry_backoff_millis"`
}

// RetryBackoff returns the retry pause as a duration.
func (c ProbeConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMillis) * time.Millisecond
}

// RateConfig throttles outbound probes. Zero values disable throttling.
type RateConfig struct {
	GlobalPerSecond float64 `yaml:"global_per_second"`
	DomainPerSecond float64 `yaml:"domain_per_second"`
}

// ListsConfig extends the embedded disposable/trusted domain lists.
type ListsConfig struct {
	ExtraDisposable []string `yaml:"extra_disposable"`
	ExtraTrusted    []string `yaml:"extra_trusted"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file. A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Set defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 30
	}
	if cfg.DNS.TimeoutSeconds == 0 {
		cfg.DNS.TimeoutSeconds = 5
	}
	if cfg.DNS.CacheTTLSeconds == 0 {
		cfg.DNS.CacheTTLSeconds = 300
	}
	if cfg.DNS.PublicResolver == "" {
		cfg.DNS.PublicResolver = "8.8.8.8:53"
	}
	if cfg.SMTP.HeloDomain == "" {
		cfg.SMTP.HeloDomain = "mailprobe.local"
	}
	if cfg.SMTP.MailFrom == "" {
		cfg.SMTP.MailFrom = "verify@" + cfg.SMTP.HeloDomain
	}
	if cfg.SMTP.Port == "" {
		cfg.SMTP.Port = "25"
	}
	if cfg.SMTP.ConnectTimeoutSeconds == 0 {
		cfg.SMTP.ConnectTimeoutSeconds = 6
	}
	if cfg.SMTP.CommandTimeoutSeconds == 0 {
		cfg.SMTP.CommandTimeoutSeconds = 10
	}
	if cfg.Probe.TransientRetries == 0 {
		cfg.Probe.TransientRetries = 1
	}
	if cfg.Probe.RetryBackoffMillis == 0 {
		cfg.Probe.RetryBackoffMillis = 500
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first if present, so settings can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MAILPROBE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MAILPROBE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MAILPROBE_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("MAILPROBE_PUBLIC_RESOLVER"); v != "" {
		cfg.DNS.PublicResolver = v
	}
	if v := os.Getenv("MAILPROBE_HELO_DOMAIN"); v != "" {
		cfg.SMTP.HeloDomain = v
	}
	if v := os.Getenv("MAILPROBE_MAIL_FROM"); v != "" {
		cfg.SMTP.MailFrom = v
	}
	if v := os.Getenv("MAILPROBE_SOCKS5_ADDR"); v != "" {
		cfg.SMTP.Socks5Addr = v
	}
	if v := os.Getenv("MAILPROBE_SOCKS5_USER"); v != "" {
		cfg.SMTP.Socks5User = v
	}
	if v := os.Getenv("MAILPROBE_SOCKS5_PASS"); v != "" {
		cfg.SMTP.Socks5Pass = v
	}
	if v := os.Getenv("MAILPROBE_REJECT_ON_UNCERTAINTY"); v != "" {
		cfg.Probe.RejectOnUncertainty = v == "true" || v == "1"
	}
	if v := os.Getenv("MAILPROBE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MAILPROBE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	return cfg, nil
}

// splitList parses a comma-separated env value.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
