package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Load reads a .env file if present; real environment variables win.
func Load() {
	_ = godotenv.Load()
}

// Env returns the named variable or a fallback.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ListenAddr() string {
	return Env("LISTEN_ADDR", ":8000")
}
