package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every environment-driven setting of the service.
type Config struct {
	// SiteURL is the public base URL used for canonicals, sitemap and
	// schema.org markup. No trailing slash.
	SiteURL string
	// SiteDir is the root the static site lives in. Products, settings,
	// leads, uploads and generated pages are all resolved against it.
	SiteDir string
	Port    string

	AdminUser string
	AdminPass string

	RateLimitSeconds int
	MaxBodyBytes     int64
	MaxUploadBytes   int64

	TelegramBotToken string
	TelegramChatID   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPTo   string
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("WARN: error loading .env file:", err)
		}
	}

	return &Config{
		SiteURL:          strings.TrimRight(strings.TrimSpace(getEnv("SITE_URL", "https://mircranov.ru")), "/"),
		SiteDir:          getEnv("SITE_DIR", "."),
		Port:             getEnv("PORT", "8000"),
		AdminUser:        getEnv("ADMIN_USER", "admin"),
		AdminPass:        getEnv("ADMIN_PASS", ""),
		RateLimitSeconds: getEnvInt("RATE_LIMIT_SECONDS", 10),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 5_000_000)),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 25_000_000)),
		TelegramBotToken: strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", "")),
		TelegramChatID:   strings.TrimSpace(getEnv("TELEGRAM_CHAT_ID", "")),
		SMTPHost:         strings.TrimSpace(getEnv("SMTP_HOST", "")),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         strings.TrimSpace(getEnv("SMTP_USER", "")),
		SMTPPass:         strings.TrimSpace(getEnv("SMTP_PASS", "")),
		SMTPTo:           strings.TrimSpace(getEnv("SMTP_TO", "")),
	}
}

// ProductsJSON is the path of the product store.
func (c *Config) ProductsJSON() string { return filepath.Join(c.SiteDir, "data", "products.json") }

// ProductsCSV is the fixed import/seed source.
func (c *Config) ProductsCSV() string { return filepath.Join(c.SiteDir, "data", "products.csv") }

// SettingsJSON is the path of the settings singleton.
func (c *Config) SettingsJSON() string { return filepath.Join(c.SiteDir, "data", "settings.json") }

// LeadsCSV is the append-only lead log.
func (c *Config) LeadsCSV() string { return filepath.Join(c.SiteDir, "leads", "leads.csv") }

// UploadsDir is where uploaded images are stored.
func (c *Config) UploadsDir() string { return filepath.Join(c.SiteDir, "assets", "uploads") }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("WARN: %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}
