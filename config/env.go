package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override secrets in the file.
const (
	EnvAPIKey         = "FUTBOT_API_KEY"
	EnvAPISecret      = "FUTBOT_API_SECRET"
	EnvDiscordWebhook = "FUTBOT_DISCORD_WEBHOOK"
	EnvPostgresDSN    = "FUTBOT_POSTGRES_DSN"
)

// LoadEnv loads .env style files into the process environment. Missing files
// are skipped; variables already set are not overwritten.
func LoadEnv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv copies set environment variables over the matching fields.
func (c *Config) ApplyEnv() {
	setStr(&c.Exchange.APIKey, EnvAPIKey)
	setStr(&c.Exchange.APISecret, EnvAPISecret)
	setStr(&c.Notify.DiscordWebhook, EnvDiscordWebhook)
	setStr(&c.Journal.DSN, EnvPostgresDSN)
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
