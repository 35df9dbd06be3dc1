package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration of the storefront API.
type Config struct {
	AppPort string

	DBDriver    string // sqlite, postgres or memory
	DatabaseDSN string

	JWTSecret       string
	JWTTTL          time.Duration
	TwoFactorTTL    time.Duration
	ProductPageSize int
	SeedProducts    bool

	RabbitMQURL string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProductCacheTTL time.Duration

	MongoURI      string
	MongoDatabase string

	SMTP           SMTPConfig
	SiteOwnerEmail string
	FrontendURL    string

	LogLevel  string
	LogFormat string
}

// SMTPConfig holds outbound mail settings. An empty Host disables SMTP delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "rempah.db")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL", "720h")
	v.SetDefault("TWO_FACTOR_TTL", "10m")
	v.SetDefault("PRODUCTS_PAGE_SIZE", 8)
	v.SetDefault("SEED_PRODUCTS", false)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PRODUCT_CACHE_TTL", "5m")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "rempah")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@rempah.local")
	v.SetDefault("MAIL_FROM_NAME", "Rempah Spices")
	v.SetDefault("SITE_OWNER_EMAIL", "")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration from the environment on top of the defaults.
func Load() *Config {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		AppPort:         v.GetString("APP_PORT"),
		DBDriver:        v.GetString("DB_DRIVER"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTTTL:          v.GetDuration("JWT_TTL"),
		TwoFactorTTL:    v.GetDuration("TWO_FACTOR_TTL"),
		ProductPageSize: v.GetInt("PRODUCTS_PAGE_SIZE"),
		SeedProducts:    v.GetBool("SEED_PRODUCTS"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		ProductCacheTTL: v.GetDuration("PRODUCT_CACHE_TTL"),
		MongoURI:        v.GetString("MONGO_URI"),
		MongoDatabase:   v.GetString("MONGO_DATABASE"),
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
			FromName: v.GetString("MAIL_FROM_NAME"),
		},
		SiteOwnerEmail: v.GetString("SITE_OWNER_EMAIL"),
		FrontendURL:    v.GetString("FRONTEND_URL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
	}
}
