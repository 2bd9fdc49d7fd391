package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetFloatEnv returns a float environment variable or a default value.
func GetFloatEnv(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// DatabaseDSN assembles the Postgres connection string from the
// environment.
func DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_USER", "postgres"),
		GetEnv("DB_PASSWORD", "postgres"),
		GetEnv("DB_NAME", "merx"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_SSLMODE", "disable"),
	)
}

// RedisAddr returns the Redis host:port.
func RedisAddr() string {
	return GetEnv("REDIS_HOST", "localhost") + ":" + GetEnv("REDIS_PORT", "6379")
}

// RedisPassword returns the Redis password, empty for none.
func RedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

// JWTSecret returns the signing secret for operator tokens.
func JWTSecret() string {
	return GetEnv("JWT_SECRET", "dev-secret-change-me")
}

// BaseDomain is the domain tenant subdomains hang off, e.g. a request to
// acme.merx.io resolves the tenant with subdomain "acme".
func BaseDomain() string {
	return GetEnv("BASE_DOMAIN", "merx.io")
}

// FeeRate returns the proportional processing fee applied to payments.
func FeeRate() float64 {
	return GetFloatEnv("FEE_RATE", 0.029)
}

// FeeFixed returns the fixed per-payment fee component.
func FeeFixed() float64 {
	return GetFloatEnv("FEE_FIXED", 0.30)
}

// AuditRetentionDays returns the retention window for non-PCI audit rows.
func AuditRetentionDays() int {
	return GetIntEnv("AUDIT_RETENTION_DAYS", 365)
}

// ListenAddr returns the HTTP bind address.
func ListenAddr() string {
	return GetEnv("LISTEN_ADDR", ":8080")
}
