package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	GatewayStripe = "stripe"
	GatewayFake   = "fake"
	GatewayNone   = "none"
)

// Config конфигурация сервиса, читается из config.toml
type Config struct {
	Server          ServerConfig          `toml:"server"`
	Storage         StorageConfig         `toml:"storage"`
	Database        DatabaseConfig        `toml:"database"`
	Redis           RedisConfig           `toml:"redis"`
	Logs            LogsConfig            `toml:"logs"`
	Metrics         MetricsConfig         `toml:"metrics"`
	Session         SessionConfig         `toml:"session"`
	Payments        PaymentsConfig        `toml:"payments"`
	Notifications   NotificationsConfig   `toml:"notifications"`
	Booking         BookingConfig         `toml:"booking"`
	CustomerService CustomerServiceConfig `toml:"customer_service"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// StorageConfig driver = "postgres" | "memory"
// memory держит всё в процессе и сессии тоже хранит в памяти
type StorageConfig struct {
	Driver   string `toml:"driver"`
	SeedDemo bool   `toml:"seed_demo"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisConfig пустой Addr = хранилище сессий в памяти процесса
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// SessionConfig длительности в секундах
type SessionConfig struct {
	IdleTimeout       int    `toml:"idle_timeout"`
	TerminalRetention int    `toml:"terminal_retention"`
	CommitLockTTL     int    `toml:"commit_lock_ttl"`
	ChargeDeadline    int    `toml:"charge_deadline"`
	EventRetention    int    `toml:"event_retention"`
	SweepSchedule     string `toml:"sweep_schedule"`
	PhonePrefix       string `toml:"phone_prefix"`
}

func (s SessionConfig) IdleTimeoutDuration() time.Duration {
	return time.Duration(s.IdleTimeout) * time.Second
}

func (s SessionConfig) TerminalRetentionDuration() time.Duration {
	return time.Duration(s.TerminalRetention) * time.Second
}

func (s SessionConfig) CommitLockTTLDuration() time.Duration {
	return time.Duration(s.CommitLockTTL) * time.Second
}

func (s SessionConfig) ChargeDeadlineDuration() time.Duration {
	return time.Duration(s.ChargeDeadline) * time.Second
}

func (s SessionConfig) EventRetentionDuration() time.Duration {
	return time.Duration(s.EventRetention) * time.Second
}

// PaymentsConfig gateway = "stripe" | "fake" | "none"
type PaymentsConfig struct {
	Gateway       string       `toml:"gateway"`
	PublicBaseURL string       `toml:"public_base_url"`
	FakeSecret    string       `toml:"fake_secret"`
	Stripe        StripeConfig `toml:"stripe"`
}

type StripeConfig struct {
	SecretKey     string `toml:"secret_key"`
	WebhookSecret string `toml:"webhook_secret"`
	SuccessURL    string `toml:"success_url"`
	CancelURL     string `toml:"cancel_url"`
}

type NotificationsConfig struct {
	SendGrid SendGridConfig `toml:"sendgrid"`
	SMS      SMSConfig      `toml:"sms"`
}

type SendGridConfig struct {
	APIKey    string `toml:"api_key"`
	FromEmail string `toml:"from_email"`
	FromName  string `toml:"from_name"`
}

type SMSConfig struct {
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
	Sender  string `toml:"sender"`
	Timeout int    `toml:"timeout"`
}

// BookingConfig no_show_threshold = 0 отключает блокировку по неявкам
type BookingConfig struct {
	NoShowThreshold int `toml:"no_show_threshold"`
}

type CustomerServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// Load читает файл, дополняет значениями по умолчанию и секретами из окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default значения, которые остаются, если файл их не задаёт
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Storage: StorageConfig{Driver: DriverPostgres},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "appointment_service",
		},
		Session: SessionConfig{
			IdleTimeout:       15 * 60,
			TerminalRetention: 10 * 60,
			CommitLockTTL:     30,
			ChargeDeadline:    30 * 60,
			EventRetention:    72 * 60 * 60,
			SweepSchedule:     "*/30 * * * * *",
			PhonePrefix:       "01",
		},
		Payments: PaymentsConfig{Gateway: GatewayNone},
		Notifications: NotificationsConfig{
			SMS: SMSConfig{Timeout: 5},
		},
		Booking:         BookingConfig{NoShowThreshold: 3},
		CustomerService: CustomerServiceConfig{Timeout: 3},
	}
}

// applyEnv секреты не обязаны лежать в файле
func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"DB_PASSWORD", &c.Database.Password},
		{"REDIS_PASSWORD", &c.Redis.Password},
		{"STRIPE_SECRET_KEY", &c.Payments.Stripe.SecretKey},
		{"STRIPE_WEBHOOK_SECRET", &c.Payments.Stripe.WebhookSecret},
		{"PAYMENT_FAKE_SECRET", &c.Payments.FakeSecret},
		{"SENDGRID_API_KEY", &c.Notifications.SendGrid.APIKey},
		{"SMS_API_KEY", &c.Notifications.SMS.APIKey},
	}

	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Session.SweepSchedule == "" {
		c.Session.SweepSchedule = "*/30 * * * * *"
	}
	if c.Payments.Gateway == "" {
		c.Payments.Gateway = GatewayNone
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgres
	}
}

// Validate проверяет диапазоны и согласованность секций
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port=%d", ErrInvalidValue, c.Server.HTTPPort)
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: database.host and database.dbname are required for postgres", ErrInvalidValue)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: storage.driver=%q", ErrInvalidValue, c.Storage.Driver)
	}

	positive := map[string]int{
		"session.idle_timeout":       c.Session.IdleTimeout,
		"session.terminal_retention": c.Session.TerminalRetention,
		"session.commit_lock_ttl":    c.Session.CommitLockTTL,
		"session.charge_deadline":    c.Session.ChargeDeadline,
		"session.event_retention":    c.Session.EventRetention,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidValue, name, v)
		}
	}

	if c.Booking.NoShowThreshold < 0 {
		return fmt.Errorf("%w: booking.no_show_threshold=%d", ErrInvalidValue, c.Booking.NoShowThreshold)
	}

	switch c.Payments.Gateway {
	case GatewayNone:
	case GatewayFake:
		if c.Payments.FakeSecret == "" || c.Payments.PublicBaseURL == "" {
			return fmt.Errorf("%w: payments.fake_secret and payments.public_base_url are required", ErrInvalidValue)
		}
	case GatewayStripe:
		if c.Payments.Stripe.SecretKey == "" || c.Payments.Stripe.WebhookSecret == "" {
			return fmt.Errorf("%w: stripe secret_key and webhook_secret are required", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: payments.gateway=%q", ErrInvalidValue, c.Payments.Gateway)
	}

	return nil
}
