package config

import "github.com/joho/godotenv"

// LoadDotEnv reads a .env file into the environment for local
// development. Existing env vars take precedence; a missing file is
// reported to the caller, who typically ignores it.
func LoadDotEnv(path string) error {
	return godotenv.Load(path)
}
