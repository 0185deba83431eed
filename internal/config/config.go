package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server" envconfig:"server"`
	Log           LogConfig           `mapstructure:"log" envconfig:"log"`
	Audit         AuditConfig         `mapstructure:"audit" envconfig:"audit"`
	Storage       StorageConfig       `mapstructure:"storage" envconfig:"storage"`
	Database      DatabaseConfig      `mapstructure:"database" envconfig:"database"`
	Redis         RedisConfig         `mapstructure:"redis" envconfig:"redis"`
	Auth          AuthConfig          `mapstructure:"auth" envconfig:"auth"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit" envconfig:"rate_limit"`
	Notifications NotificationsConfig `mapstructure:"notifications" envconfig:"notifications"`
	Dispatcher    DispatcherConfig    `mapstructure:"dispatcher" envconfig:"dispatcher"`
	Clinic        ClinicConfig        `mapstructure:"clinic" envconfig:"clinic"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" envconfig:"port"`
	Mode            string        `mapstructure:"mode" envconfig:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" envconfig:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" envconfig:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" envconfig:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" envconfig:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" envconfig:"allowed_origins"`
}

type LogConfig struct {
	Level   string `mapstructure:"level" envconfig:"level"`
	Console bool   `mapstructure:"console" envconfig:"console"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled" envconfig:"enabled"`
	// Path of the audit log file; "stdout" or empty writes to standard output.
	Path string `mapstructure:"path" envconfig:"path"`
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
)

type StorageConfig struct {
	Backend string       `mapstructure:"backend" envconfig:"backend"`
	Memory  MemoryConfig `mapstructure:"memory" envconfig:"memory"`
	Remote  RemoteConfig `mapstructure:"remote" envconfig:"remote"`
}

type MemoryConfig struct {
	Latency  time.Duration `mapstructure:"latency" envconfig:"latency"`
	SeedFile string        `mapstructure:"seed_file" envconfig:"seed_file"`
}

type RemoteConfig struct {
	BaseURL   string        `mapstructure:"base_url" envconfig:"base_url"`
	ProjectID string        `mapstructure:"project_id" envconfig:"project_id"`
	PublicKey string        `mapstructure:"public_key" envconfig:"public_key"`
	Timeout   time.Duration `mapstructure:"timeout" envconfig:"timeout"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" envconfig:"cache_ttl"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" envconfig:"host"`
	Port         int    `mapstructure:"port" envconfig:"port"`
	User         string `mapstructure:"user" envconfig:"user"`
	Password     string `mapstructure:"password" envconfig:"password"`
	Name         string `mapstructure:"name" envconfig:"name"`
	SSLMode      string `mapstructure:"sslmode" envconfig:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" envconfig:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" envconfig:"max_idle_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	// URL enables the Redis event broker; events stay in-process when empty.
	URL        string `mapstructure:"url" envconfig:"url"`
	Channel    string `mapstructure:"channel" envconfig:"channel"`
	PoolSize   int    `mapstructure:"pool_size" envconfig:"pool_size"`
	MaxRetries int    `mapstructure:"max_retries" envconfig:"max_retries"`
}

type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled" envconfig:"enabled"`
	JWTSecret string        `mapstructure:"jwt_secret" envconfig:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer" envconfig:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" envconfig:"token_ttl"`
	Operators []Operator    `mapstructure:"operators" ignored:"true"`
}

// Operator is a staff login. PasswordHash is a bcrypt hash.
type Operator struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled" envconfig:"enabled"`
	RPS     float64 `mapstructure:"rps" envconfig:"rps"`
	Burst   int     `mapstructure:"burst" envconfig:"burst"`
}

const (
	NotifySimulated = "simulated"
	NotifySMTP      = "smtp"
)

type NotificationsConfig struct {
	Mode           string        `mapstructure:"mode" envconfig:"mode"`
	SimulatedDelay time.Duration `mapstructure:"simulated_delay" envconfig:"simulated_delay"`
	DefaultEmail   string        `mapstructure:"default_email" envconfig:"default_email"`
	DefaultPhone   string        `mapstructure:"default_phone" envconfig:"default_phone"`
	SMTP           SMTPConfig    `mapstructure:"smtp" envconfig:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"host"`
	Port     int    `mapstructure:"port" envconfig:"port"`
	Username string `mapstructure:"username" envconfig:"username"`
	Password string `mapstructure:"password" envconfig:"password"`
	From     string `mapstructure:"from" envconfig:"from"`
}

type DispatcherConfig struct {
	Enabled      bool          `mapstructure:"enabled" envconfig:"enabled"`
	PollInterval time.Duration `mapstructure:"poll_interval" envconfig:"poll_interval"`
}

type ClinicConfig struct {
	Timezone    string `mapstructure:"timezone" envconfig:"timezone"`
	OpenTime    string `mapstructure:"open_time" envconfig:"open_time"`
	CloseTime   string `mapstructure:"close_time" envconfig:"close_time"`
	SlotMinutes int    `mapstructure:"slot_minutes" envconfig:"slot_minutes"`
}

// Location resolves the clinic time zone, falling back to UTC.
func (c ClinicConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.path", "stdout")

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.memory.latency", 0)
	v.SetDefault("storage.remote.timeout", 10*time.Second)
	v.SetDefault("storage.remote.cache_ttl", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.channel", "clinic.events")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.max_retries", 3)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.issuer", "clinic-api")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("notifications.mode", NotifySimulated)
	v.SetDefault("notifications.simulated_delay", time.Second)
	v.SetDefault("notifications.default_email", "patient@example.com")
	v.SetDefault("notifications.default_phone", "+1234567890")
	v.SetDefault("notifications.smtp.port", 587)

	v.SetDefault("dispatcher.enabled", true)
	v.SetDefault("dispatcher.poll_interval", time.Minute)

	v.SetDefault("clinic.timezone", "UTC")
	v.SetDefault("clinic.open_time", "09:00")
	v.SetDefault("clinic.close_time", "17:00")
	v.SetDefault("clinic.slot_minutes", 30)
}

// LoadConfig reads the YAML file at path, or config.yml from the usual
// search paths when path is empty, then applies CLINIC_* environment
// overrides. A missing config.yml on the search paths is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("clinic", &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	switch c.Storage.Backend {
	case BackendMemory, BackendPostgres:
	case BackendRemote:
		if c.Storage.Remote.BaseURL == "" {
			return fmt.Errorf("storage.remote.base_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Notifications.Mode {
	case NotifySimulated:
	case NotifySMTP:
		if c.Notifications.SMTP.Host == "" {
			return fmt.Errorf("notifications.smtp.host is required in smtp mode")
		}
	default:
		return fmt.Errorf("unknown notifications mode %q", c.Notifications.Mode)
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	if c.Dispatcher.Enabled && c.Dispatcher.PollInterval <= 0 {
		return fmt.Errorf("dispatcher.poll_interval must be positive")
	}
	if c.Clinic.SlotMinutes <= 0 {
		return fmt.Errorf("clinic.slot_minutes must be positive")
	}
	return nil
}
