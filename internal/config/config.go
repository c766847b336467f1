package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SSLMode    string

	// SessionHashKey signs session cookies; SessionBlockKey additionally
	// encrypts them when set. Empty keys fall back to random per-process
	// keys.
	SessionHashKey  string
	SessionBlockKey string
	SecureCookies   bool

	BaseURL      string
	TemplatesDir string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

// Load reads configuration from the environment, with a .env file as a
// development convenience.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "planbook"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),

		SessionHashKey:  getEnv("SESSION_HASH_KEY", ""),
		SessionBlockKey: getEnv("SESSION_BLOCK_KEY", ""),
		SecureCookies:   getEnv("SECURE_COOKIES", "false") == "true",

		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "internal/templates"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@localhost"),
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
