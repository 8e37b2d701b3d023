package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Email    EmailConfig    `mapstructure:"email"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig holds HTTP server configuration.
type AppConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Operator account seeded at startup when both values are set.
	// NEWSLETTER_APP_ADMIN_PASSWORD is the expected source in production.
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// EmailConfig holds outbound email transport configuration.
// Transport selects the implementation: "postmark", "smtp" or "stdout".
type EmailConfig struct {
	Transport     string        `mapstructure:"transport"`
	SenderAddress string        `mapstructure:"sender_address"`
	BaseURL       string        `mapstructure:"base_url"`
	AuthToken     string        `mapstructure:"auth_token"`
	SendTimeout   time.Duration `mapstructure:"send_timeout"`
	SMTPHost      string        `mapstructure:"smtp_host"`
	SMTPPort      int           `mapstructure:"smtp_port"`
	SMTPUsername  string        `mapstructure:"smtp_username"`
	SMTPPassword  string        `mapstructure:"smtp_password"`
}

// WorkerConfig holds delivery worker configuration.
// PollInterval doubles as the retry policy for transient send failures:
// entries left in the queue are picked up again on a later poll.
type WorkerConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPort     int           `mapstructure:"metrics_port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix NEWSLETTER_ override file values.
// For example, NEWSLETTER_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("NEWSLETTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.read_timeout", 15*time.Second)
	v.SetDefault("app.write_timeout", 15*time.Second)

	v.SetDefault("database.pool_min", 2)
	v.SetDefault("database.pool_max", 10)
	v.SetDefault("database.connect_timeout", 10*time.Second)

	v.SetDefault("email.transport", "stdout")
	v.SetDefault("email.send_timeout", 10*time.Second)
	v.SetDefault("email.smtp_port", 587)

	v.SetDefault("worker.poll_interval", 10*time.Second)
	v.SetDefault("worker.batch_size", 50)
	v.SetDefault("worker.shutdown_timeout", 30*time.Second)
	v.SetDefault("worker.metrics_port", 9090)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
}
