package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the marketplace service. It is loaded
// from YAML and then overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Uploads   UploadsConfig   `yaml:"uploads"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains broker settings for product event fan-out.
// Leaving Broker.Host empty disables MQTT.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains reconnection back-off, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeouts, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig lists origins allowed to call the API from a browser.
// An empty list allows any origin, which suits a public storefront.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains settings for the live product feed.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB settings for auth and catalog metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains token and password settings.
type SecurityConfig struct {
	JWT      JWTConfig      `yaml:"jwt"`
	Password PasswordConfig `yaml:"password"`
}

// JWTConfig contains token signing settings.
type JWTConfig struct {
	Secret        string `yaml:"secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// PasswordConfig contains password hashing settings.
type PasswordConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// UploadsConfig selects where product images are stored.
type UploadsConfig struct {
	Backend   string         `yaml:"backend"` // "local" or "s3"
	Dir       string         `yaml:"dir"`
	URLPrefix string         `yaml:"url_prefix"`
	MaxSizeMB int            `yaml:"max_size_mb"`
	S3        S3UploadConfig `yaml:"s3"`
}

// S3UploadConfig contains S3-compatible object storage settings.
type S3UploadConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Upload backends.
const (
	UploadBackendLocal = "local"
	UploadBackendS3    = "s3"
)

// Validation bounds.
const (
	minJWTSecretLength = 32
	minBcryptCost      = 10
	maxBcryptCost      = 31
)

// envOverrides is decoded from the process environment by envconfig.
// Zero values mean "not set".
type envOverrides struct {
	JWTSecret     string `envconfig:"JWT_SECRET"`
	Port          int    `envconfig:"PORT"`
	DatabasePath  string `envconfig:"DATABASE_PATH"`
	MQTTHost      string `envconfig:"MARKET_MQTT_HOST"`
	InfluxDBToken string `envconfig:"MARKET_INFLUXDB_TOKEN"`
	S3AccessKey   string `envconfig:"MARKET_S3_ACCESS_KEY"`
	S3SecretKey   string `envconfig:"MARKET_S3_SECRET_KEY"`
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides, then validation.
//
// JWT_SECRET, PORT and DATABASE_PATH are unprefixed so a bare .env file
// is enough to run the service without any YAML.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/marketplace.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port:     1883,
				ClientID: "marketplace-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Org:           "marketplace",
			Bucket:        "marketplace",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				TokenTTLHours: 72,
			},
			Password: PasswordConfig{
				BcryptCost: 10,
			},
		},
		Uploads: UploadsConfig{
			Backend:   UploadBackendLocal,
			Dir:       "./uploads",
			URLPrefix: "/uploads",
			MaxSizeMB: 5,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return err
	}

	if env.JWTSecret != "" {
		cfg.Security.JWT.Secret = env.JWTSecret
	}
	if env.Port != 0 {
		cfg.API.Port = env.Port
	}
	if env.DatabasePath != "" {
		cfg.Database.Path = env.DatabasePath
	}
	if env.MQTTHost != "" {
		cfg.MQTT.Broker.Host = env.MQTTHost
	}
	if env.InfluxDBToken != "" {
		cfg.InfluxDB.Token = env.InfluxDBToken
	}
	if env.S3AccessKey != "" {
		cfg.Uploads.S3.AccessKey = env.S3AccessKey
	}
	if env.S3SecretKey != "" {
		cfg.Uploads.S3.SecretKey = env.S3SecretKey
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	switch {
	case c.Security.JWT.Secret == "":
		errs = append(errs, "security.jwt.secret is required (set JWT_SECRET environment variable)")
	case len(c.Security.JWT.Secret) < minJWTSecretLength:
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}
	if c.Security.JWT.TokenTTLHours < 1 {
		errs = append(errs, "security.jwt.token_ttl_hours must be positive")
	}

	if cost := c.Security.Password.BcryptCost; cost < minBcryptCost || cost > maxBcryptCost {
		errs = append(errs, fmt.Sprintf("security.password.bcrypt_cost must be between %d and %d", minBcryptCost, maxBcryptCost))
	}

	switch c.Uploads.Backend {
	case UploadBackendLocal:
		if c.Uploads.Dir == "" {
			errs = append(errs, "uploads.dir is required for the local backend")
		}
	case UploadBackendS3:
		if c.Uploads.S3.Bucket == "" {
			errs = append(errs, "uploads.s3.bucket is required for the s3 backend")
		}
	default:
		errs = append(errs, `uploads.backend must be "local" or "s3"`)
	}
	if c.Uploads.MaxSizeMB < 1 {
		errs = append(errs, "uploads.max_size_mb must be positive")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors: " + strings.Join(errs, "; "))
	}
	return nil
}

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// TokenTTL returns the configured token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.TokenTTLHours) * time.Hour
}

// MaxUploadBytes returns the image size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Uploads.MaxSizeMB) << 20
}

// ReadTimeout returns the read timeout as a duration.
func (t APITimeoutConfig) ReadTimeout() time.Duration {
	return time.Duration(t.Read) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (t APITimeoutConfig) WriteTimeout() time.Duration {
	return time.Duration(t.Write) * time.Second
}

// IdleTimeout returns the idle timeout as a duration.
func (t APITimeoutConfig) IdleTimeout() time.Duration {
	return time.Duration(t.Idle) * time.Second
}
