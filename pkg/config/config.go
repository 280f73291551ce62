package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Static serving modes
const (
	StaticModeNone    = "none"
	StaticModeDisk    = "disk"
	StaticModeBundled = "bundled"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Address string        `yaml:"address"`
	Static  StaticConfig  `yaml:"static"`
	Logging LoggingConfig `yaml:"logging"`
}

// StaticConfig represents static file serving settings
type StaticConfig struct {
	Mode      string `yaml:"mode"` // none | disk | bundled
	Directory string `yaml:"directory"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Address: ":8080",
		Static: StaticConfig{
			Mode:      StaticModeNone,
			Directory: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*ServerConfig, error) {
	config := DefaultConfig()

	// Load from file if provided
	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	applyEnvOverrides(config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string, config *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return err
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(config *ServerConfig) {
	if addr := os.Getenv("RADAR_ADDR"); addr != "" {
		config.Address = addr
	}

	if mode := os.Getenv("RADAR_STATIC_MODE"); mode != "" {
		config.Static.Mode = mode
	}

	if dir := os.Getenv("RADAR_STATIC_DIR"); dir != "" {
		config.Static.Directory = dir
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}
}

// Validate validates the configuration
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	switch strings.ToLower(c.Static.Mode) {
	case StaticModeNone, StaticModeBundled:
	case StaticModeDisk:
		if c.Static.Directory == "" {
			return fmt.Errorf("static serving mode is disk but no directory provided")
		}
	default:
		return fmt.Errorf("invalid static serving mode: %s", c.Static.Mode)
	}

	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	valid := []string{"debug", "info", "warn", "error"}
	level = strings.ToLower(level)
	for _, v := range valid {
		if level == v {
			return true
		}
	}
	return false
}

// String returns a string representation of the configuration (for logging)
func (c *ServerConfig) String() string {
	return fmt.Sprintf("Config{Address: %s, Static: %s, LogLevel: %s}",
		c.Address, c.Static.Mode, c.Logging.Level)
}
