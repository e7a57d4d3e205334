package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures application-level configuration knobs. Feature packages
// (auth, email, ledger, realtime) pull from these nested structs.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Auth     AuthConfig     `mapstructure:"auth" json:"auth"`
	Email    EmailConfig    `mapstructure:"email" json:"email"`
	Realtime RealtimeConfig `mapstructure:"realtime" json:"realtime"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// DatabaseConfig selects the storage backend. An empty DSN runs the
// in-memory repositories.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

// AuthConfig carries token issuance settings.
type AuthConfig struct {
	Secret     string        `mapstructure:"secret" json:"secret"`
	Issuer     string        `mapstructure:"issuer" json:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl" json:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl" json:"refresh_ttl"`
	VerifyTTL  time.Duration `mapstructure:"verify_ttl" json:"verify_ttl"`
	ResetTTL   time.Duration `mapstructure:"reset_ttl" json:"reset_ttl"`
}

// EmailConfig selects the outbound mail provider and sender identity.
type EmailConfig struct {
	Provider      string `mapstructure:"provider" json:"provider"`
	From          string `mapstructure:"from" json:"from"`
	AppName       string `mapstructure:"app_name" json:"app_name"`
	BaseURL       string `mapstructure:"base_url" json:"base_url"`
	DefaultLocale string `mapstructure:"default_locale" json:"default_locale"`
	SMTPHost      string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort      int    `mapstructure:"smtp_port" json:"smtp_port"`
	SMTPUsername  string `mapstructure:"smtp_username" json:"smtp_username"`
	SMTPPassword  string `mapstructure:"smtp_password" json:"smtp_password"`
	SESRegion     string `mapstructure:"ses_region" json:"ses_region"`
}

// RealtimeConfig controls the live update hub. Realtime is on by default;
// Disabled keeps the zero value useful for configs that omit the section.
type RealtimeConfig struct {
	Disabled          bool          `mapstructure:"disabled" json:"disabled"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" json:"heartbeat_interval"`
	SendBuffer        int           `mapstructure:"send_buffer" json:"send_buffer"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "memory",
		},
		Auth: AuthConfig{
			Issuer:     "go-ticketing",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			VerifyTTL:  48 * time.Hour,
			ResetTTL:   time.Hour,
		},
		Email: EmailConfig{
			Provider:      "console",
			From:          "no-reply@localhost",
			AppName:       "Ticketing",
			BaseURL:       "http://localhost:8080",
			DefaultLocale: "en",
			SMTPPort:      587,
		},
		Realtime: RealtimeConfig{
			HeartbeatInterval: 25 * time.Second,
			SendBuffer:        16,
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if c.Auth.AccessTTL <= 0 {
		return fmt.Errorf("auth.access_ttl must be > 0")
	}
	if c.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("auth.refresh_ttl must be > 0")
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
	}
	if c.Email.Provider != "" && c.Email.From == "" {
		return errors.New("email.from is required when a provider is set")
	}
	if c.Realtime.SendBuffer < 0 {
		return fmt.Errorf("realtime.send_buffer must be >= 0")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// While cfgx.Build still returns zero values, we fallback to a lightweight
// decoder to keep smoke tests meaningful. Once cfgx is fully implemented we
// can drop the fallback.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Database.Driver == "" {
		c.Database.Driver = defaults.Database.Driver
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = defaults.Auth.Issuer
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = defaults.Auth.AccessTTL
	}
	if c.Auth.RefreshTTL == 0 {
		c.Auth.RefreshTTL = defaults.Auth.RefreshTTL
	}
	if c.Auth.VerifyTTL == 0 {
		c.Auth.VerifyTTL = defaults.Auth.VerifyTTL
	}
	if c.Auth.ResetTTL == 0 {
		c.Auth.ResetTTL = defaults.Auth.ResetTTL
	}
	if c.Email.Provider == "" {
		c.Email.Provider = defaults.Email.Provider
	}
	if c.Email.From == "" {
		c.Email.From = defaults.Email.From
	}
	if c.Email.AppName == "" {
		c.Email.AppName = defaults.Email.AppName
	}
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = defaults.Email.BaseURL
	}
	if c.Email.DefaultLocale == "" {
		c.Email.DefaultLocale = defaults.Email.DefaultLocale
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = defaults.Email.SMTPPort
	}
	if c.Realtime.HeartbeatInterval == 0 {
		c.Realtime.HeartbeatInterval = defaults.Realtime.HeartbeatInterval
	}
	if c.Realtime.SendBuffer == 0 {
		c.Realtime.SendBuffer = defaults.Realtime.SendBuffer
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
