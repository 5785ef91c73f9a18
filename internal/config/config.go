package config

import (
	"os"
	"strconv"
)

type Mode string

const (
	ModePoll    Mode = "poll"
	ModeWebhook Mode = "webhook"
)

type Config struct {
	Mode Mode

	BotToken    string
	BotUsername string // public handle, without "@"
	AdminID     int64

	// Webhook mode only.
	WebhookURL string // public base URL Telegram delivers updates to
	HTTPAddr   string

	DBDriver string
	DBDSN    string

	// Base URL of the external certificate image service.
	CertificateURL string

	LogLevel string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModePoll
	}
	return Config{
		Mode:           mode,
		BotToken:       os.Getenv("BOT_TOKEN"),
		BotUsername:    envOr("BOT_USERNAME", "test270bot"),
		AdminID:        envInt64("ADMIN_ID", 0),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		CertificateURL: envOr("CERTIFICATE_URL", "https://ollashukur.uz/image.php"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
