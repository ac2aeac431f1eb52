package config

import "github.com/joho/godotenv"

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist.
// It is a best-effort helper for local development; errors are ignored
// and variables already present in the environment win.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		_ = godotenv.Load(path)
	}
}
