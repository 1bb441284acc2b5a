package config

import (
	"time"

	"github.com/spf13/viper"
)

// Settings holds the recognized runtime options. Everything comes from the
// environment (godotenv loads .env first) with sane defaults, so a bare
// `go run .` against local Postgres/Redis works.
type Settings struct {
	Port            string
	CorsOrigin      string
	MaxParticipants int
	SessionExpiry   time.Duration
	CodeLength      int
	SweepInterval   time.Duration
}

// Load reads the settings from the environment via viper.
func Load() *Settings {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("MAX_PARTICIPANTS", 50)
	v.SetDefault("SESSION_EXPIRY_TIME", "24h")
	v.SetDefault("SESSION_CODE_LENGTH", 6)
	v.SetDefault("SWEEP_INTERVAL", "1h")

	return &Settings{
		Port:            v.GetString("PORT"),
		CorsOrigin:      v.GetString("CORS_ORIGIN"),
		MaxParticipants: v.GetInt("MAX_PARTICIPANTS"),
		SessionExpiry:   v.GetDuration("SESSION_EXPIRY_TIME"),
		CodeLength:      v.GetInt("SESSION_CODE_LENGTH"),
		SweepInterval:   v.GetDuration("SWEEP_INTERVAL"),
	}
}
