package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	DBDriver   string `mapstructure:"DB_DRIVER" validate:"oneof=mysql postgres sqlite"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME" validate:"required"`
	DBDSN      string `mapstructure:"DB_DSN"`

	Port     string `mapstructure:"PORT" validate:"required,numeric"`
	GinMode  string `mapstructure:"GIN_MODE" validate:"oneof=debug release test"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	JWTSecret string        `mapstructure:"JWT_SECRET" validate:"required,min=32"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL" validate:"gt=0"`

	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT" validate:"gt=0,lt=65536"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM" validate:"omitempty,email"`

	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_PHONE_NUMBER" validate:"omitempty,e164"`
	TwilioBaseURL    string `mapstructure:"TWILIO_BASE_URL" validate:"url"`

	ReminderSchedule string        `mapstructure:"REMINDER_SCHEDULE" validate:"required"`
	ReminderWindow   time.Duration `mapstructure:"REMINDER_WINDOW" validate:"gt=0"`
	ReminderOnce     bool          `mapstructure:"REMINDER_ONCE"`

	RateLimitWindow  time.Duration `mapstructure:"RATE_LIMIT_WINDOW" validate:"gt=0"`
	RateLimitGeneral int           `mapstructure:"RATE_LIMIT_GENERAL" validate:"gt=0"`
	RateLimitLogin   int           `mapstructure:"RATE_LIMIT_LOGIN" validate:"gt=0"`
}

var defaults = map[string]interface{}{
	"DB_DRIVER":   "mysql",
	"DB_HOST":     "localhost",
	"DB_PORT":     "3306",
	"DB_USER":     "taskuser",
	"DB_PASSWORD": "taskpassword",
	"DB_NAME":     "task_management",
	"DB_DSN":      "",

	"PORT":      "8080",
	"GIN_MODE":  "debug",
	"LOG_LEVEL": "info",

	"JWT_SECRET": "default-secret-key-change-me-before-deploying",
	"JWT_TTL":    "6h",

	"OPENAI_API_KEY": "",

	"SMTP_HOST":     "",
	"SMTP_PORT":     587,
	"SMTP_USERNAME": "",
	"SMTP_PASSWORD": "",
	"SMTP_FROM":     "",

	"TWILIO_ACCOUNT_SID":  "",
	"TWILIO_AUTH_TOKEN":   "",
	"TWILIO_PHONE_NUMBER": "",
	"TWILIO_BASE_URL":     "https://api.twilio.com",

	"REMINDER_SCHEDULE": "0 9 * * *",
	"REMINDER_WINDOW":   "24h",
	"REMINDER_ONCE":     false,

	"RATE_LIMIT_WINDOW":  "15m",
	"RATE_LIMIT_GENERAL": 150,
	"RATE_LIMIT_LOGIN":   5,
}

// Load reads configuration from the environment, falling back to defaults,
// and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}

	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.DBHost,
			c.DBUser,
			c.DBPassword,
			c.DBName,
			c.DBPort,
		)
	case "sqlite":
		return c.DBName
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DBUser,
			c.DBPassword,
			c.DBHost,
			c.DBPort,
			c.DBName,
		)
	}
}

// SMTPEnabled reports whether outbound email is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// TwilioEnabled reports whether outbound SMS is configured.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}
