package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
)

// devHMACKey is the placeholder key shipped in .env.example. Refusing to
// start with it keeps an unconfigured deployment from producing an audit
// trail anyone could forge.
const devHMACKey = "dev-secret-change-in-production"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Audit     AuditConfig
	Ledger    LedgerConfig
	Points    PointsConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// AuditConfig holds audit trail configuration
type AuditConfig struct {
	HMACKey      []byte
	LogPath      string
	KeepArchives int
}

// LedgerConfig holds ledger-specific configuration
type LedgerConfig struct {
	// RefKey encrypts external payment references at rest. Optional: when
	// unset, references are stored in plaintext.
	RefKey *fernet.Key
}

// PointsConfig holds the VISUpoints conversion parameters
type PointsConfig struct {
	Threshold int64
	Rate      int64
}

// ReconcileConfig holds the reconciliation scheduler configuration
type ReconcileConfig struct {
	Schedule string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	hmacKey := os.Getenv("AUDIT_HMAC_KEY")
	if hmacKey == "" {
		return nil, fmt.Errorf("AUDIT_HMAC_KEY is required")
	}
	if hmacKey == devHMACKey {
		return nil, fmt.Errorf("AUDIT_HMAC_KEY is still set to the development placeholder")
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/settlement_core.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Audit: AuditConfig{
			HMACKey:      []byte(hmacKey),
			LogPath:      getEnv("AUDIT_LOG_PATH", "./var/audit.log"),
			KeepArchives: getEnvInt("AUDIT_KEEP_ARCHIVES", 12),
		},
		Points: PointsConfig{
			Threshold: int64(getEnvInt("POINTS_THRESHOLD", 2500)),
			Rate:      int64(getEnvInt("POINTS_RATE", 100)),
		},
		Reconcile: ReconcileConfig{
			Schedule: getEnv("RECONCILE_SCHEDULE", "0 3 * * *"),
		},
	}

	if config.Points.Threshold <= 0 || config.Points.Rate <= 0 {
		return nil, fmt.Errorf("POINTS_THRESHOLD and POINTS_RATE must be positive")
	}

	if encoded := os.Getenv("LEDGER_REF_FERNET_KEY"); encoded != "" {
		key, err := fernet.DecodeKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid LEDGER_REF_FERNET_KEY: %w", err)
		}
		config.Ledger.RefKey = key
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
