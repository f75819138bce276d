// internal/config/env.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Env holds process settings read from the environment.
type Env struct {
	LogLevel      string // HAGGLE_LOG_LEVEL, default "info"
	LogJSON       bool   // HAGGLE_LOG_JSON
	Addr          string // HAGGLE_ADDR, default ":8080"
	TranscriptDir string // HAGGLE_TRANSCRIPT_DIR, empty disables transcripts
	Seed          uint64 // HAGGLE_SEED, default 1
}

// LoadEnv loads the given .env files (".env" when none are named) into the
// process environment and reads the settings. Missing files are ignored.
func LoadEnv(files ...string) (Env, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Env{}, fmt.Errorf("load env: %w", err)
	}

	env := Env{
		LogLevel:      getenvDefault("HAGGLE_LOG_LEVEL", "info"),
		LogJSON:       asBool(os.Getenv("HAGGLE_LOG_JSON")),
		Addr:          getenvDefault("HAGGLE_ADDR", ":8080"),
		TranscriptDir: strings.TrimSpace(os.Getenv("HAGGLE_TRANSCRIPT_DIR")),
		Seed:          1,
	}
	if s := strings.TrimSpace(os.Getenv("HAGGLE_SEED")); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Env{}, fmt.Errorf("HAGGLE_SEED: %w", err)
		}
		env.Seed = seed
	}
	return env, nil
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
