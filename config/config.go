package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/random-image/internal/catalog"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	SourceStatic = "static"
	SourceRemote = "remote"
	SourceFile   = "file"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
	Endpoint    string `mapstructure:"endpoint"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ImagesConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type RemoteConfig struct {
	APIURL           string `mapstructure:"api_url"`
	Owner            string `mapstructure:"owner"`
	Repo             string `mapstructure:"repo"`
	Branch           string `mapstructure:"branch"`
	Root             string `mapstructure:"root"`
	Token            string `mapstructure:"token"`
	TTL              string `mapstructure:"ttl"`
	BreakerThreshold int    `mapstructure:"breaker_threshold"`
	BreakerTimeout   string `mapstructure:"breaker_timeout"`
}

// FileConfig locates the counts document. A relative URL is resolved
// against Origin, which is then required.
type FileConfig struct {
	URL    string `mapstructure:"url"`
	Origin string `mapstructure:"origin"`
	TTL    string `mapstructure:"ttl"`
}

type CountsConfig struct {
	Source      string         `mapstructure:"source"`
	HTTPTimeout string         `mapstructure:"http_timeout"`
	Static      map[string]int `mapstructure:"static"`
	Remote      RemoteConfig   `mapstructure:"remote"`
	File        FileConfig     `mapstructure:"file"`
}

type MetricsConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
}

// HealthConfig controls the background count monitor. An empty or zero
// WarmInterval disables periodic refreshes.
type HealthConfig struct {
	WarmInterval string `mapstructure:"warm_interval"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Images  ImagesConfig  `mapstructure:"images"`
	Counts  CountsConfig  `mapstructure:"counts"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

var defaultStaticCounts = map[catalog.Category]int{
	catalog.Horizontal:    882,
	catalog.Vertical:      3289,
	catalog.R18Horizontal: 100,
	catalog.R18Vertical:   100,
	catalog.PIDHorizontal: 100,
	catalog.PIDVertical:   100,
	catalog.TagHorizontal: 100,
	catalog.TagVertical:   100,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.endpoint", "/")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("images.base_path", catalog.DefaultBasePath)

	v.SetDefault("counts.source", SourceStatic)
	v.SetDefault("counts.http_timeout", "10s")
	for c, n := range defaultStaticCounts {
		v.SetDefault("counts.static."+c.String(), n)
	}

	v.SetDefault("counts.remote.api_url", "https://api.github.com")
	v.SetDefault("counts.remote.owner", "")
	v.SetDefault("counts.remote.repo", "")
	v.SetDefault("counts.remote.branch", "main")
	v.SetDefault("counts.remote.root", "ri")
	v.SetDefault("counts.remote.token", "")
	v.SetDefault("counts.remote.ttl", "5m")
	v.SetDefault("counts.remote.breaker_threshold", 5)
	v.SetDefault("counts.remote.breaker_timeout", "30s")

	v.SetDefault("counts.file.url", "/counts.json")
	v.SetDefault("counts.file.origin", "")
	v.SetDefault("counts.file.ttl", "60s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.buffer_size", 1000)

	v.SetDefault("health.warm_interval", "4m")
}

// Load reads config.yaml from ./config or the working directory, then
// applies environment overrides such as COUNTS_SOURCE=file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.Endpoint,
						validation.Required,
						validation.By(validateURLPath),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Images,
			validation.By(func(value interface{}) error {
				ic, ok := value.(ImagesConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an ImagesConfig")
				}
				return validation.ValidateStruct(&ic,
					validation.Field(&ic.BasePath, validation.By(validateURLPath)),
				)
			}),
		),
		validation.Field(&c.Counts,
			validation.Required,
			validation.By(validateCountsConfig),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize, validation.Required, validation.Min(1)),
				)
			}),
		),
		validation.Field(&c.Health,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.WarmInterval,
						validation.When(hc.WarmInterval != "", validation.By(validateDuration)),
					),
				)
			}),
		),
	)
}

func validateCountsConfig(value interface{}) error {
	cc, ok := value.(CountsConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a CountsConfig")
	}

	remoteRequired := validation.When(cc.Source == SourceRemote, validation.Required)

	return validation.ValidateStruct(&cc,
		validation.Field(&cc.Source,
			validation.Required,
			validation.In(SourceStatic, SourceRemote, SourceFile),
		),
		validation.Field(&cc.HTTPTimeout,
			validation.Required,
			validation.By(validateDuration),
		),
		validation.Field(&cc.Static,
			validation.By(validateStaticCounts),
		),
		validation.Field(&cc.Remote,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RemoteConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RemoteConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.APIURL, remoteRequired, validation.By(validateServerURL)),
					validation.Field(&rc.Owner, remoteRequired),
					validation.Field(&rc.Repo, remoteRequired),
					validation.Field(&rc.Branch, remoteRequired),
					validation.Field(&rc.TTL, validation.Required, validation.By(validateDuration)),
					validation.Field(&rc.BreakerThreshold, validation.Min(0)),
					validation.Field(&rc.BreakerTimeout, validation.Required, validation.By(validateDuration)),
				)
			}),
		),
		validation.Field(&cc.File,
			validation.By(func(value interface{}) error {
				fc, ok := value.(FileConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a FileConfig")
				}
				return validation.ValidateStruct(&fc,
					validation.Field(&fc.URL, validation.Required, validation.By(validateCountsURL)),
					validation.Field(&fc.Origin,
						validation.When(cc.Source == SourceFile && strings.HasPrefix(fc.URL, "/"), validation.Required),
						validation.By(validateServerURL),
					),
					validation.Field(&fc.TTL, validation.Required, validation.By(validateDuration)),
				)
			}),
		),
	)
}

// StaticTable converts the configured static counts into a count table.
func (c *Config) StaticTable() catalog.Table {
	t := catalog.NewTable()
	for key, n := range c.Counts.Static {
		if cat, ok := catalog.Parse(strings.ToLower(key)); ok {
			t[cat] = n
		}
	}
	return t
}

// Duration parses a duration field that Validate has already checked.
func Duration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateURLPath(value interface{}) error {
	p, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if p != "" && !strings.HasPrefix(p, "/") {
		return validation.NewError("validation_invalid_path", "must start with /")
	}

	return nil
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return nil
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

// validateCountsURL accepts a same-origin path or an absolute http(s) URL.
func validateCountsURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if strings.HasPrefix(raw, "/") {
		return nil
	}

	return validateServerURL(raw)
}

func validateStaticCounts(value interface{}) error {
	counts, ok := value.(map[string]int)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of counts")
	}

	for key, n := range counts {
		if _, ok := catalog.Parse(strings.ToLower(key)); !ok {
			return validation.NewError("validation_unknown_category", fmt.Sprintf("unknown category %q", key))
		}
		if n < 0 {
			return validation.NewError("validation_negative_count", fmt.Sprintf("count for %q must not be negative", key))
		}
	}

	return nil
}
