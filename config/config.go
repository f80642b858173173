// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	API      APIConfig      `yaml:"api" toml:"api"`
	Routes   RoutesConfig   `yaml:"routes" toml:"routes"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Geo      GeoConfig      `yaml:"geo" toml:"geo"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
	OpenAPI  OpenAPIConfig  `yaml:"openapi" toml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string   `yaml:"host" toml:"host" validate:"required"`
	Port            int      `yaml:"port" toml:"port" validate:"min=0,max=65535"`
	ReadTimeout     Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout" toml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout" toml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// APIConfig holds the response envelope info and the mount point.
type APIConfig struct {
	Version     int    `yaml:"version" toml:"version" validate:"min=0"`
	License     string `yaml:"license" toml:"license" validate:"required"`
	Description string `yaml:"description" toml:"description"`
	BasePath    string `yaml:"base_path" toml:"base_path" validate:"omitempty,startswith=/"`
}

// RoutesConfig locates route declaration files.
type RoutesConfig struct {
	Dir          string `yaml:"dir" toml:"dir"`
	AllowReplace bool   `yaml:"allow_replace" toml:"allow_replace"`
}

// DatabaseConfig configures the sqlite plugin. An empty DSN disables it.
type DatabaseConfig struct {
	DSN        string `yaml:"dsn" toml:"dsn"`
	Migrations string `yaml:"migrations" toml:"migrations"` // directory of *.sql files
}

// GeoConfig configures GeoJSON and TopoJSON output.
type GeoConfig struct {
	Precision      int    `yaml:"precision" toml:"precision" validate:"min=1,max=15"`
	GeometryColumn string `yaml:"geometry_column" toml:"geometry_column" validate:"required"`
	GeometryType   string `yaml:"geometry_type" toml:"geometry_type" validate:"oneof=geojson wkt wkb"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=json console"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path" validate:"omitempty,startswith=/"`
}

// OpenAPIConfig configures the OpenAPI document and Swagger UI.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// Duration is a time.Duration read from text such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Default returns the configuration used when no file is given. Loaded
// files are decoded over it, so absent keys keep these values.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration{30 * time.Second},
			WriteTimeout:    Duration{60 * time.Second},
			IdleTimeout:     Duration{120 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		API: APIConfig{
			Version:     1,
			License:     "Unknown",
			Description: "This is the API root",
		},
		Routes: RoutesConfig{Dir: "routes"},
		Geo: GeoConfig{
			Precision:      6,
			GeometryColumn: "geometry",
			GeometryType:   "geojson",
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		OpenAPI: OpenAPIConfig{Enabled: true},
	}
}

// Load reads configuration from a YAML or TOML file, chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration from defaults and environment variables.
//
// Environment variables:
//
//	LARKIN_SERVER_HOST        - Server host (default: 0.0.0.0)
//	LARKIN_SERVER_PORT        - Server port (default: 8080)
//	LARKIN_API_VERSION        - Envelope version (default: 1)
//	LARKIN_API_LICENSE        - Envelope license (default: Unknown)
//	LARKIN_API_DESCRIPTION    - API root description
//	LARKIN_API_BASE_PATH      - Mount prefix, e.g. /api
//	LARKIN_ROUTES_DIR         - Route declarations directory (default: routes)
//	LARKIN_DATABASE_DSN       - SQLite DSN for the sqlite plugin
//	LARKIN_GEO_PRECISION      - Coordinate precision (default: 6)
//	LARKIN_LOG_LEVEL          - Log level: debug, info, warn, error (default: info)
//	LARKIN_LOG_FORMAT         - Log format: json or console (default: json)
//	LARKIN_METRICS_ENABLED    - Enable /metrics endpoint (default: true)
//	LARKIN_OPENAPI_ENABLED    - Enable OpenAPI/Swagger (default: true)
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to LoadFromEnv.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies LARKIN_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("LARKIN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LARKIN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LARKIN_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration{d}
		}
	}
	if v := os.Getenv("LARKIN_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration{d}
		}
	}

	// API configuration
	if v := os.Getenv("LARKIN_API_VERSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Version = n
		}
	}
	if v := os.Getenv("LARKIN_API_LICENSE"); v != "" {
		cfg.API.License = v
	}
	if v := os.Getenv("LARKIN_API_DESCRIPTION"); v != "" {
		cfg.API.Description = v
	}
	if v := os.Getenv("LARKIN_API_BASE_PATH"); v != "" {
		cfg.API.BasePath = v
	}

	if v := os.Getenv("LARKIN_ROUTES_DIR"); v != "" {
		cfg.Routes.Dir = v
	}
	if v := os.Getenv("LARKIN_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LARKIN_GEO_PRECISION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Geo.Precision = n
		}
	}

	// Logging configuration
	if v := os.Getenv("LARKIN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LARKIN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}

	// Metrics configuration
	if v := os.Getenv("LARKIN_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("LARKIN_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// OpenAPI configuration
	if v := os.Getenv("LARKIN_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// FieldError is one failed constraint.
type FieldError struct {
	Field   string // dot-notation path, e.g. "server.port"
	Message string
}

// ValidationErrors collects every failed constraint of a config.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "validation failed with %d error(s):", len(ve))
	for _, e := range ve {
		fmt.Fprintf(&sb, " %s: %s;", e.Field, e.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their yaml key
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks cfg against its struct constraints. The error is a
// ValidationErrors listing every failure.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, FieldError{Field: field, Message: validationMessage(e)})
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", e.Param())
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}
