package config

import (
	"os"
	"strings"
)

// secretFileSuffix marks the variable that points at a mounted secret file
const secretFileSuffix = "_FILE"

// GetSecret resolves a database credential. The variable itself wins;
// otherwise <envVar>_FILE may name a mounted secret (for example
// DB_PASSWORD_FILE=/run/secrets/db_password) whose trimmed contents are used.
// A missing, unreadable or blank file falls back to defaultValue.
func GetSecret(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}

	path := os.Getenv(envVar + secretFileSuffix)
	if path == "" {
		return defaultValue
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultValue
	}
	if value := strings.TrimSpace(string(data)); value != "" {
		return value
	}
	return defaultValue
}
