package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`
	Log struct {
		Level     string `yaml:"level"`
		File      string `yaml:"file"`
		MaxSizeMB int    `yaml:"max_size_mb"`
	} `yaml:"log"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Contest struct {
		CacheTTL string `yaml:"cache_ttl"`
		Timezone string `yaml:"timezone"`
	} `yaml:"contest"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Load reads YAML config from path. Environment variables in the file are
// expanded, so secrets can stay out of it.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Location resolves contest.timezone, defaulting to UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Contest.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Contest.Timezone)
}
