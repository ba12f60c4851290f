package config

import (
	"os"
	"strings"
)

// Config holds every environment-driven setting. Behavior knobs such as
// selector timeouts are deliberate constants in the flow packages; only
// deployment concerns live here.
type Config struct {
	// Headless controls whether Chromium runs without a visible window.
	// Turn off temporarily when debugging anti-bot challenges.
	Headless bool

	// CitySlug scopes listings to a city; Divar restricts some flows by
	// city (e.g. "mashhad").
	CitySlug string

	// StatePath is where the storage-state snapshot (cookies + local
	// storage) is persisted between runs.
	StatePath string

	// DebugDir receives paired screenshot/HTML dumps on failures.
	DebugDir string

	// Addr is the HTTP listen address for the facade.
	Addr string
}

// FromEnv builds a Config from environment variables, with the same
// defaults the service has always shipped with.
func FromEnv() *Config {
	return &Config{
		Headless:  strings.ToLower(getenv("HEADLESS", "true")) == "true",
		CitySlug:  getenv("DIVAR_CITY_SLUG", "mashhad"),
		StatePath: getenv("DIVAR_STATE_PATH", "/tmp/divar_state.json"),
		DebugDir:  getenv("DIVAR_DEBUG_DIR", "/tmp/divar_debug"),
		Addr:      ":" + getenv("PORT", "8080"),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
