package pkg

import "os"

// Getenv returns the value of key, or defaultValue when key is unset. A key
// set to the empty string yields the empty string.
func Getenv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
