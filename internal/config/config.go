package config

import (
	"strings"

	"github.com/estatehub/realtime/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	CORSOrigins   []string
	LogLevel      string
	WSPath        string
	PresenceSweep string
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "3000")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "estate")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("WS_PATH", "/socket")
	v.SetDefault("PRESENCE_SWEEP", "@every 1m")

	cfg := &Config{
		Port:          v.GetString("PORT"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDB:       v.GetString("MONGO_DB"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:      v.GetString("LOG_LEVEL"),
		WSPath:        v.GetString("WS_PATH"),
		PresenceSweep: v.GetString("PRESENCE_SWEEP"),
	}
	if cfg.JWTSecret == "" {
		logger.Log.Warn("JWT_SECRET is empty; protected routes will reject every token")
	}
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
