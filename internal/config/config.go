package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes the environment variables read by Load.
// RECO_DATABASE_MAX_OPEN_CONNS maps to database.max_open_conns.
const EnvPrefix = "RECO_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	ORS       ORSConfig       `koanf:"ors"`
	Distance  DistanceConfig  `koanf:"distance"`
	Recommend RecommendConfig `koanf:"recommend"`
	Dataset   DatasetConfig   `koanf:"dataset"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	TTL      time.Duration `koanf:"ttl"`
}

type ORSConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Profile string        `koanf:"profile"`
	Timeout time.Duration `koanf:"timeout"`
}

type DistanceConfig struct {
	// Where distances come from: the dataset table, great-circle geometry, or OpenRouteService.
	Source string `koanf:"source" validate:"oneof=table geo ors"`
	// Value returned for pairs no source knows. Must be negative so it can
	// never be mistaken for a measured distance.
	Fallback int `koanf:"fallback" validate:"lt=0"`
	// Optional persistent cache in front of the source.
	Cache string `koanf:"cache" validate:"oneof=none postgres redis"`
}

type RecommendConfig struct {
	Concurrency int `koanf:"concurrency" validate:"gte=1,lte=64"`
}

type DatasetConfig struct {
	Path         string `koanf:"path"`
	DistancesCSV string `koanf:"distances_csv"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{TTL: 24 * time.Hour},
		ORS: ORSConfig{
			BaseURL: "https://api.openrouteservice.org",
			Profile: "driving-car",
			Timeout: 10 * time.Second,
		},
		Distance:  DistanceConfig{Source: "table", Fallback: -1, Cache: "none"},
		Recommend: RecommendConfig{Concurrency: 1},
		Dataset:   DatasetConfig{Path: "data/seeds/dataset.json"},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// RECO_-prefixed environment variables, in increasing order of precedence.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load config: read .env: %w", err)
	}

	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config: read %q: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("load config: read environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	// The bare DATABASE_URL used by the tooling stays supported.
	if cfg.Database.URL == "" {
		cfg.Database.URL = Get("DATABASE_URL", "")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("load config: validate: %w", err)
	}

	return &cfg, nil
}

// envKey turns RECO_SECTION_SOME_FIELD into section.some_field.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	section, field, ok := strings.Cut(k, "_")
	if !ok {
		return k, v
	}
	return section + "." + field, v
}

// Get returns the environment variable key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
