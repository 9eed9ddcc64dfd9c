package config

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gogsea/domain/core"
	"gogsea/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Admin    AdminConfig
	Catalogs CatalogConfig
	Engine   EngineConfig
	RunStore RunStoreConfig
	S3       S3Config
	Logging  LoggingConfig
}

// ServerConfig holds API server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// AdminConfig holds the metrics and profiling server settings
type AdminConfig struct {
	Port    string
	Enabled bool
}

// CatalogConfig maps species to GMT locations (paths or s3:// URIs)
type CatalogConfig struct {
	Locations map[core.Species]string
	UpperCase bool // SYMBOL_CASE=upper
	Preload   bool
}

// EngineConfig holds enrichment defaults and limits
type EngineConfig struct {
	DefaultPermutations   int
	MaxPermutations       int
	Workers               int
	MaxConcurrentAnalyses int
	Weight                float64
	NormMode              string
}

// RunStoreConfig selects the run ledger backend
type RunStoreConfig struct {
	Driver string // memory, postgres, sqlite
	URL    string
}

// S3Config holds settings for s3:// catalog locations
type S3Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   loadServerConfig(),
		Admin:    loadAdminConfig(),
		Catalogs: loadCatalogConfig(os.Environ()),
		Engine:   loadEngineConfig(),
		RunStore: loadRunStoreConfig(),
		S3:       loadS3Config(),
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnvOrDefault("PORT", "8070"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ReadTimeout:     getEnvDurationOrDefault("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvDurationOrDefault("WRITE_TIMEOUT", 10*time.Minute),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    int64(getEnvIntOrDefault("MAX_BODY_BYTES", 64<<20)),
	}
}

func loadAdminConfig() AdminConfig {
	return AdminConfig{
		Port:    getEnvOrDefault("ADMIN_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("ADMIN_ENABLED", true),
	}
}

// LoadCatalogConfig reads only the catalog settings, for tools that do not
// need the full server configuration.
func LoadCatalogConfig() CatalogConfig {
	return loadCatalogConfig(os.Environ())
}

// loadCatalogConfig reads HUMAN_GMT_PATH, MOUSE_GMT_PATH and any
// GMT_PATH_<SPECIES> entries from environ.
func loadCatalogConfig(environ []string) CatalogConfig {
	locations := map[core.Species]string{}
	if v := os.Getenv("HUMAN_GMT_PATH"); v != "" {
		locations[core.SpeciesHuman] = v
	}
	if v := os.Getenv("MOUSE_GMT_PATH"); v != "" {
		locations[core.SpeciesMouse] = v
	}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(key, "GMT_PATH_") {
			continue
		}
		species := core.ParseSpecies(strings.TrimPrefix(key, "GMT_PATH_"))
		locations[species] = value
	}

	return CatalogConfig{
		Locations: locations,
		UpperCase: strings.EqualFold(getEnvOrDefault("SYMBOL_CASE", "preserve"), "upper"),
		Preload:   getEnvBoolOrDefault("PRELOAD_CATALOGS", false),
	}
}

func loadEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultPermutations:   getEnvIntOrDefault("DEFAULT_PERMUTATIONS", 1000),
		MaxPermutations:       getEnvIntOrDefault("MAX_PERMUTATIONS", 10000),
		Workers:               getEnvIntOrDefault("ENGINE_WORKERS", runtime.NumCPU()),
		MaxConcurrentAnalyses: getEnvIntOrDefault("MAX_CONCURRENT_ANALYSES", 2),
		Weight:                getEnvFloatOrDefault("SCORE_WEIGHT", 1.0),
		NormMode:              getEnvOrDefault("NORM_MODE", "meandiv"),
	}
}

func loadRunStoreConfig() RunStoreConfig {
	return RunStoreConfig{
		Driver: strings.ToLower(getEnvOrDefault("RUN_STORE_DRIVER", "memory")),
		URL:    os.Getenv("DATABASE_URL"),
	}
}

func loadS3Config() S3Config {
	return S3Config{
		Region:    getEnvOrDefault("AWS_REGION", "us-east-1"),
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		PathStyle: getEnvBoolOrDefault("S3_PATH_STYLE", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Admin.Enabled && config.Admin.Port == config.Server.Port {
		return errors.ConfigInvalid("ADMIN_PORT must differ from PORT")
	}
	if len(config.Catalogs.Locations) == 0 {
		return errors.ConfigInvalid("at least one catalog is required (HUMAN_GMT_PATH, MOUSE_GMT_PATH or GMT_PATH_<SPECIES>)")
	}

	e := config.Engine
	if e.DefaultPermutations < 1 {
		return errors.ConfigInvalid("DEFAULT_PERMUTATIONS must be at least 1")
	}
	if e.MaxPermutations < e.DefaultPermutations {
		return errors.ConfigInvalid("MAX_PERMUTATIONS must be at least DEFAULT_PERMUTATIONS")
	}
	if e.Workers < 1 {
		return errors.ConfigInvalid("ENGINE_WORKERS must be at least 1")
	}
	if e.MaxConcurrentAnalyses < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_ANALYSES must be at least 1")
	}
	if e.Weight < 0 {
		return errors.ConfigInvalid("SCORE_WEIGHT must be non-negative")
	}
	switch e.NormMode {
	case "meandiv", "none":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("NORM_MODE %q is not supported", e.NormMode))
	}

	switch config.RunStore.Driver {
	case "memory":
	case "postgres", "sqlite":
		if config.RunStore.URL == "" {
			return errors.ConfigInvalid(fmt.Sprintf("DATABASE_URL is required for RUN_STORE_DRIVER=%s", config.RunStore.Driver))
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("RUN_STORE_DRIVER %q is not supported", config.RunStore.Driver))
	}
	return nil
}

// SpeciesList returns the configured species in lexical order
func (c *Config) SpeciesList() []core.Species {
	out := make([]core.Species, 0, len(c.Catalogs.Locations))
	for s := range c.Catalogs.Locations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
