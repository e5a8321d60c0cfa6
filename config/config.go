package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Business calendar. All shift and reminder arithmetic happens in this zone.
	BusinessTimezone string `mapstructure:"BUSINESS_TIMEZONE"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int    `mapstructure:"REDIS_CACHE_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Reminder sweep.
	ReminderEnabled       bool          `mapstructure:"REMINDER_ENABLED"`
	ReminderInterval      time.Duration `mapstructure:"REMINDER_INTERVAL"`
	ReminderWindowMin     time.Duration `mapstructure:"REMINDER_WINDOW_MIN"`
	ReminderWindowMax     time.Duration `mapstructure:"REMINDER_WINDOW_MAX"`
	ReminderClaimTTL      time.Duration `mapstructure:"REMINDER_CLAIM_TTL"`
	ReminderSendsPerSec   float64       `mapstructure:"REMINDER_SENDS_PER_SEC"`
	ReminderDelivery      string        `mapstructure:"REMINDER_DELIVERY"` // direct | queue
	ReminderWorkerEnabled bool          `mapstructure:"REMINDER_WORKER_ENABLED"`

	// SMTP transport for reminder mail.
	SMTPEnabled  bool   `mapstructure:"SMTP_ENABLED"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPUseTLS   bool   `mapstructure:"SMTP_USE_TLS"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	BookingsURL  string `mapstructure:"BOOKINGS_URL"`

	// Firebase Cloud Messaging. Empty path disables push reminders.
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`

	// Google Maps API Key. Empty key disables travel-time estimates.
	GoogleAPIKey string `mapstructure:"GOOGLE_API_KEY"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "bookme")
	v.SetDefault("BUSINESS_TIMEZONE", "Asia/Ulaanbaatar")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_REMINDER_QUEUE_DB", 3)

	v.SetDefault("REMINDER_ENABLED", true)
	v.SetDefault("REMINDER_INTERVAL", "10m")
	v.SetDefault("REMINDER_WINDOW_MIN", "55m")
	v.SetDefault("REMINDER_WINDOW_MAX", "65m")
	v.SetDefault("REMINDER_CLAIM_TTL", "30m")
	v.SetDefault("REMINDER_SENDS_PER_SEC", 1.0)
	v.SetDefault("REMINDER_DELIVERY", "direct")
	v.SetDefault("REMINDER_WORKER_ENABLED", false)

	v.SetDefault("SMTP_ENABLED", false)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_USE_TLS", true)
	v.SetDefault("MAIL_FROM", "no-reply@bookme.mn")
	v.SetDefault("BOOKINGS_URL", "https://bookme.mn/bookings")

	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("GOOGLE_API_KEY", "")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location resolves the business timezone, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.BusinessTimezone)
	if err != nil {
		log.Printf("Unknown BUSINESS_TIMEZONE %q, using UTC", AppConfig.BusinessTimezone)
		return time.UTC
	}
	return loc
}
