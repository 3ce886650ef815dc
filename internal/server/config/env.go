package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// loadDotEnv exports the variables of path into the process environment
// when the file exists. Variables already set win.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// parseEnv overlays BLOG_* variables from environ onto config. Unset
// variables leave the current value untouched.
func parseEnv(config *Config, environ map[string]string) {
	if err := env.ParseWithOptions(config, env.Options{Environment: environ}); err != nil {
		panic(err)
	}
}
