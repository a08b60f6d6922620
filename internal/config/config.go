package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string
	DBPath       string
	RedisURL     string
	JWTSecret    string
	JWTTTL       time.Duration
	CookieName   string
	CookieSecure bool
	ClientURL    string
	LogLevel     string
	LogFormat    string
}

// New returns a viper instance bound to the environment with every default
// registered, so command-line flags can be layered on top before Load.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "msgly.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
	v.SetDefault("COOKIE_NAME", "jwt")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CLIENT_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	return v
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:         v.GetString("PORT"),
		DBPath:       v.GetString("DB_PATH"),
		RedisURL:     v.GetString("REDIS_URL"),
		JWTSecret:    v.GetString("JWT_SECRET"),
		JWTTTL:       v.GetDuration("JWT_TTL"),
		CookieName:   v.GetString("COOKIE_NAME"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
		ClientURL:    v.GetString("CLIENT_URL"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		LogFormat:    v.GetString("LOG_FORMAT"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.New("JWT_TTL must be positive")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "jwt"
	}
	return cfg, nil
}
