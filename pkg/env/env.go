package env

import (
	"os"
	"strings"
)

const prefix = "CELLARWISE_"

// Get reads key, preferring its CELLARWISE_ prefixed form. It is meant for
// the few settings needed before config.Load runs.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(prefix + key)); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
