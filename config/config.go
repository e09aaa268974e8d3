// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/giygas/vetref-api/compat"
)

// Environment is the deployment environment the server runs in.
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

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

// ParseEnvironment maps an ENV value to an Environment. Unknown values
// return EnvDevelopment together with an error.
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
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	RegistryFile          string // empty means the embedded registry
	RegistryReloadMinutes int    // 0 disables the periodic reload
	DefaultPolicy         compat.Policy
	DefaultFluid          compat.Fluid
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	policy, fluid, err := LoadCheckDefaults()
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := &Config{
		Port:                  getEnvWithDefault("PORT", "8000"),
		Address:               getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:                   env,
		LogLevel:              getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:                getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks:     getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:        getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:        getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:         getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		RegistryFile:          os.Getenv("REGISTRY_FILE"),
		RegistryReloadMinutes: getIntEnvWithDefault("REGISTRY_RELOAD_MINUTES", 0),
		DefaultPolicy:         policy,
		DefaultFluid:          fluid,
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadCheckDefaults reads only DEFAULT_POLICY and DEFAULT_FLUID, for callers
// such as the CLI that do not need the server settings
func LoadCheckDefaults() (compat.Policy, compat.Fluid, error) {
	policy, err := compat.ParsePolicy(getEnvWithDefault("DEFAULT_POLICY", string(compat.PolicyStandard)))
	if err != nil {
		return "", "", fmt.Errorf("invalid DEFAULT_POLICY: %w", err)
	}

	fluid, err := compat.ParseFluid(getEnvWithDefault("DEFAULT_FLUID", "ns"))
	if err != nil {
		return "", "", fmt.Errorf("invalid DEFAULT_FLUID: %w", err)
	}

	return policy, fluid, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if strings.TrimSpace(cfg.LogDir) == "" {
		return fmt.Errorf("invalid LOG_DIR: LOG_DIR cannot be empty")
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateRegistryFile(cfg.RegistryFile); err != nil {
		return fmt.Errorf("invalid REGISTRY_FILE: %w", err)
	}

	if err := validateReloadMinutes(cfg.RegistryReloadMinutes); err != nil {
		return fmt.Errorf("invalid REGISTRY_RELOAD_MINUTES: %w", err)
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

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Clinic deployments stay on loopback or private ranges
	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
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

	if weeks > 52 {
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

// validateRegistryFile checks that an override file exists and is YAML
func validateRegistryFile(path string) error {
	if path == "" {
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("REGISTRY_FILE must be a .yaml or .yml file, got: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("REGISTRY_FILE is not readable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("REGISTRY_FILE is a directory: %s", path)
	}

	return nil
}

// validateReloadMinutes validates the REGISTRY_RELOAD_MINUTES environment variable
func validateReloadMinutes(minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("REGISTRY_RELOAD_MINUTES must not be negative, got: %d", minutes)
	}

	if minutes > 7*24*60 {
		return fmt.Errorf("REGISTRY_RELOAD_MINUTES is too large (max one week), got: %d", minutes)
	}

	return nil
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

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"REGISTRY_FILE",
		"REGISTRY_RELOAD_MINUTES",
		"DEFAULT_POLICY",
		"DEFAULT_FLUID",
	}
}
