package vesta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	AttributeBackendRequest = ""
	AttributeBackendMemory  = "memory"
	AttributeBackendRedis   = "redis"

	MetricsProviderPrometheus = "prometheus"
	MetricsProviderVictoria   = "victoria"

	defaultSessionCookie = "VESTASESSID"
	defaultSessionTTL    = 30 * time.Minute
	defaultServerTimeout = 10 * time.Second
)

type Config struct {
	Schema      string             `json:"schema" yaml:"schema" toml:"schema"`
	Name        string             `json:"name" yaml:"name" toml:"name" validate:"required"`
	Version     string             `json:"version" yaml:"version" toml:"version" validate:"required"`
	Debug       bool               `json:"debug" yaml:"debug" toml:"debug"`
	Server      ServerConfig       `json:"server" yaml:"server" toml:"server"`
	Dashboard   DashboardConfig    `json:"dashboard" yaml:"dashboard" toml:"dashboard"`
	Application ApplicationConfig  `json:"application" yaml:"application" toml:"application"`
	Attributes  AttributesConfig   `json:"attributes" yaml:"attributes" toml:"attributes"`
	Middlewares []MiddlewareConfig `json:"middlewares" yaml:"middlewares" toml:"middlewares" validate:"dive"`
	Routes      []RouteConfig      `json:"routes" yaml:"routes" toml:"routes" validate:"required,min=1,dive"`
}

type ServerConfig struct {
	Port    int           `json:"port" yaml:"port" toml:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout" validate:"gt=0"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Provider string `json:"provider" yaml:"provider" toml:"provider" validate:"omitempty,oneof=prometheus victoria"`
}

type DashboardConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" toml:"enabled"`
	Port    int           `json:"port" yaml:"port" toml:"port" validate:"omitempty,min=1,max=65535"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
}

type ApplicationConfig struct {
	ContextPath   string   `json:"context_path" yaml:"context_path" toml:"context_path" validate:"omitempty,startswith=/"`
	VirtualHosts  []string `json:"virtual_hosts" yaml:"virtual_hosts" toml:"virtual_hosts" validate:"dive,hostname_rfc1123"`
	ActionParam   string   `json:"action_param" yaml:"action_param" toml:"action_param"`
	DefaultAction string   `json:"default_action" yaml:"default_action" toml:"default_action"`
	Views         string   `json:"views" yaml:"views" toml:"views"`
}

type AttributesConfig struct {
	Backend string        `json:"backend" yaml:"backend" toml:"backend" validate:"omitempty,oneof=memory redis"`
	Cookie  string        `json:"cookie" yaml:"cookie" toml:"cookie"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" toml:"ttl" validate:"gte=0"`
	Redis   RedisConfig   `json:"redis" yaml:"redis" toml:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr"`
	Username string `json:"username" yaml:"username" toml:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db" toml:"db" validate:"gte=0"`
	Prefix   string `json:"prefix" yaml:"prefix" toml:"prefix"`
}

type RouteConfig struct {
	Path          string             `json:"path" yaml:"path" toml:"path" validate:"required,startswith=/"`
	Method        string             `json:"method" yaml:"method" toml:"method" validate:"required,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS *"`
	Controller    string             `json:"controller" yaml:"controller" toml:"controller" validate:"required"`
	ActionParam   string             `json:"action_param" yaml:"action_param" toml:"action_param"`
	DefaultAction string             `json:"default_action" yaml:"default_action" toml:"default_action"`
	Middlewares   []MiddlewareConfig `json:"middlewares" yaml:"middlewares" toml:"middlewares" validate:"dive"`
}

type MiddlewareConfig struct {
	Name     string         `json:"name" yaml:"name" toml:"name" validate:"required"`
	Path     string         `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Config   map[string]any `json:"config" yaml:"config" toml:"config"`
	Override bool           `json:"override" yaml:"override" toml:"override"`
}

// LoadConfig reads a .json, .yaml/.yml or .toml configuration file, fills in
// defaults and validates it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config

	switch filepath.Ext(path) {
	case ".json":
		if err = json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse json: %w", err)
		}
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case ".toml":
		if err = toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse toml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unknown config file extension: %q", filepath.Ext(path))
	}

	cfg.setDefaults()

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = defaultServerTimeout
	}
	if cfg.Server.Metrics.Enabled && cfg.Server.Metrics.Provider == "" {
		cfg.Server.Metrics.Provider = MetricsProviderPrometheus
	}
	if cfg.Dashboard.Timeout == 0 {
		cfg.Dashboard.Timeout = defaultServerTimeout
	}
	if cfg.Application.ActionParam == "" {
		cfg.Application.ActionParam = defaultActionParam
	}
	if cfg.Application.DefaultAction == "" {
		cfg.Application.DefaultAction = defaultAction
	}
	if cfg.Attributes.Cookie == "" {
		cfg.Attributes.Cookie = defaultSessionCookie
	}
	if cfg.Attributes.TTL == 0 {
		cfg.Attributes.TTL = defaultSessionTTL
	}
	for i := range cfg.Routes {
		cfg.Routes[i].Method = strings.ToUpper(cfg.Routes[i].Method)
	}
}

//nolint:gochecknoglobals // validator caches struct metadata
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their configuration key.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Validate checks struct tags first and the rules spanning several fields after.
func (cfg *Config) Validate() error {
	var errs []error

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}

		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("%s failed on '%s' rule", configPath(fe.Namespace()), fe.Tag()))
		}
	}

	if cfg.Dashboard.Enabled && cfg.Dashboard.Port == 0 {
		errs = append(errs, errors.New("dashboard.port is required when dashboard is enabled"))
	}

	if cfg.Attributes.Backend == AttributeBackendRedis && cfg.Attributes.Redis.Addr == "" {
		errs = append(errs, errors.New("attributes.redis.addr is required for redis backend"))
	}

	if strings.HasSuffix(cfg.Application.ContextPath, "/") {
		errs = append(errs, errors.New("application.context_path must not end with '/'"))
	}

	seen := make(map[string]int, len(cfg.Routes))
	for i, route := range cfg.Routes {
		key := route.Method + " " + route.Path
		if j, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("routes[%d] duplicates routes[%d] (%s)", i, j, key))
			continue
		}
		seen[key] = i
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// configPath drops the root struct name: "Config.routes[0].path" -> "routes[0].path".
func configPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return ns
}
