package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL     string `yaml:"ttl"`
		Library string `yaml:"library"`
	} `yaml:"quiz"`
	Game struct {
		ResultsDelay         string `yaml:"results_delay"`
		CloseWhenAllAnswered bool   `yaml:"close_when_all_answered"`
		LobbyTTL             string `yaml:"lobby_ttl"`
		FinishedTTL          string `yaml:"finished_ttl"`
		SweepInterval        string `yaml:"sweep_interval"`
		CodeLength           int    `yaml:"code_length"`
		MinTimeLimit         int    `yaml:"min_time_limit"`
		MaxTimeLimit         int    `yaml:"max_time_limit"`
		MaxQuestions         int    `yaml:"max_questions"`
	} `yaml:"game"`
	Results struct {
		Keep int `yaml:"keep"`
	} `yaml:"results"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default is the configuration used for every key the file leaves out.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "10m"
	cfg.Quiz.TTL = "10m"
	cfg.Game.ResultsDelay = "5s"
	cfg.Game.CloseWhenAllAnswered = true
	cfg.Game.LobbyTTL = "2h"
	cfg.Game.FinishedTTL = "10m"
	cfg.Game.SweepInterval = "1m"
	cfg.Game.CodeLength = 6
	cfg.Game.MinTimeLimit = 10
	cfg.Game.MaxTimeLimit = 120
	cfg.Game.MaxQuestions = 100
	cfg.Results.Keep = 100
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error; environment variables override both.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.Quiz.Library, "QUIZ_LIBRARY")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			cfg.Redis.DB = db
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
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
