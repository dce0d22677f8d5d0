// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment stage
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

// String returns the canonical short name
func (e Environment) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "prod"
	case EnvTest:
		return "test"
	default:
		return "dev"
	}
}

// ParseEnvironment accepts short and long stage names, case-insensitively
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	default:
		return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
	}
}

// Search strategies, mirrored from the search package to keep config free of imports
const (
	strategyFuzzy    = "fuzzy"
	strategyFullText = "fulltext"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	CatalogPath     string // Local CSV catalog
	CatalogURL      string // Optional remote CSV refreshed on every reload
	CatalogEncoding string // utf8 or latin1
	SearchStrategy  string // fuzzy or fulltext
	SearchDBPath    string // SQLite index used by the fulltext strategy
	ReloadSchedule  string // gocron "HH:MM;HH:MM" daily reload times

	AllowedOrigins []string
	ClinicName     string
	RequireProxy   bool // Reject non-loopback requests without proxy headers

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	DatabaseURL    string        // Record store; empty disables persistence
	PersistTimeout time.Duration // Per-save deadline
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               env,
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		CatalogPath:     getEnvWithDefault("CATALOG_PATH", "data/medicine_data.csv"),
		CatalogURL:      os.Getenv("CATALOG_URL"),
		CatalogEncoding: strings.ToLower(getEnvWithDefault("CATALOG_ENCODING", "utf8")),
		SearchStrategy:  strings.ToLower(getEnvWithDefault("SEARCH_STRATEGY", strategyFuzzy)),
		SearchDBPath:    getEnvWithDefault("SEARCH_DB_PATH", "data/drugs.db"),
		ReloadSchedule:  getEnvWithDefault("RELOAD_SCHEDULE", "06:00;18:00"),

		AllowedOrigins: splitList(getEnvWithDefault("ALLOWED_ORIGINS", "*")),
		ClinicName:     getEnvWithDefault("CLINIC_NAME", "OneStopMed"),
		RequireProxy:   getBoolEnvWithDefault("REQUIRE_PROXY", false),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   os.Getenv("JWT_ISSUER"),
		JWTAudience: getEnvWithDefault("JWT_AUDIENCE", "authenticated"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PersistTimeout: getDurationEnvWithDefault("PERSIST_TIMEOUT", 3*time.Second),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether permissive local defaults apply
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment || c.Env == EnvTest
}

// ReloadTimes returns the trimmed HH:MM entries of ReloadSchedule
func (c *Config) ReloadTimes() []string {
	var out []string
	for _, at := range strings.Split(c.ReloadSchedule, ";") {
		if at = strings.TrimSpace(at); at != "" {
			out = append(out, at)
		}
	}
	return out
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	// Validate PORT
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	// Validate ADDRESS
	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	// Validate LOG_LEVEL
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// Validate MAX_REQUEST_BODY
	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	// Validate MAX_HEADER_SIZE
	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	// Validate LOG_RETENTION_WEEKS
	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	// Validate MAX_LOG_FILE_SIZE
	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if cfg.CatalogPath == "" {
		return fmt.Errorf("invalid CATALOG_PATH: cannot be empty")
	}

	// Validate CATALOG_ENCODING
	if err := validateOneOf(cfg.CatalogEncoding, "CATALOG_ENCODING", "utf8", "latin1"); err != nil {
		return fmt.Errorf("invalid CATALOG_ENCODING: %w", err)
	}

	// Validate SEARCH_STRATEGY
	if err := validateOneOf(cfg.SearchStrategy, "SEARCH_STRATEGY", strategyFuzzy, strategyFullText); err != nil {
		return fmt.Errorf("invalid SEARCH_STRATEGY: %w", err)
	}

	// Validate RELOAD_SCHEDULE
	if err := validateSchedule(cfg.ReloadSchedule); err != nil {
		return fmt.Errorf("invalid RELOAD_SCHEDULE: %w", err)
	}

	// Verified tokens are mandatory outside development
	if cfg.JWTSecret == "" && !cfg.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required when ENV is %s", cfg.Env)
	}

	if cfg.PersistTimeout <= 0 {
		return fmt.Errorf("invalid PERSIST_TIMEOUT: must be positive, got: %s", cfg.PersistTimeout)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Container platforms bind every interface behind their own proxy
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return nil
	}

	return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	return validateOneOf(logLevel, "LOG_LEVEL", "debug", "info", "warn", "error")
}

// validateOneOf checks value against a closed set
func validateOneOf(value, name string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %v, got: %s", name, allowed, value)
}

// validateSchedule checks a gocron ";"-separated list of HH:MM times
func validateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("RELOAD_SCHEDULE cannot be empty")
	}

	for _, at := range strings.Split(schedule, ";") {
		if _, err := time.Parse("15:04", strings.TrimSpace(at)); err != nil {
			return fmt.Errorf("RELOAD_SCHEDULE entry %q is not HH:MM", at)
		}
	}

	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// splitList splits a comma-separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnvWithDefault gets an environment variable as bool with a default value
func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault gets an environment variable as a time.Duration with a default value
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"CATALOG_PATH",
		"CATALOG_URL",
		"CATALOG_ENCODING",
		"SEARCH_STRATEGY",
		"SEARCH_DB_PATH",
		"RELOAD_SCHEDULE",
		"ALLOWED_ORIGINS",
		"CLINIC_NAME",
		"REQUIRE_PROXY",
		"JWT_SECRET",
		"JWT_ISSUER",
		"JWT_AUDIENCE",
		"DATABASE_URL",
		"PERSIST_TIMEOUT",
	}
}
