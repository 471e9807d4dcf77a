package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// APIKeyEnv is the environment variable holding the dashboard API key.
const APIKeyEnv = "MERAKI_API_KEY"

const (
	DefaultBaseURL     = "https://api.meraki.com/api/v1"
	DefaultUserAgent   = "mdc-dashboard-client"
	DefaultTopicPrefix = "meraki/reports"
)

// ConfigError reports a missing or malformed configuration value.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

// Config holds all application configuration
type Config struct {
	// Dashboard API configuration
	Dashboard DashboardConfig `json:"dashboard"`

	// Report output configuration
	Output OutputConfig `json:"output"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// MQTT report publishing configuration
	MQTT MQTTConfig `json:"mqtt"`
}

// DashboardConfig holds everything the dashboard client needs
type DashboardConfig struct {
	BaseURL   string        `json:"base_url"`
	APIKey    string        `json:"-"`
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"timeout"`
}

// OutputConfig holds where report files are written
type OutputConfig struct {
	Dir string `json:"dir"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout, stderr, or file path
	EnableCaller bool   `json:"enable_caller"`
}

// MQTTConfig holds MQTT-related configuration. Publishing is off when
// BrokerHost is empty.
type MQTTConfig struct {
	BrokerHost  string `json:"broker_host"`
	BrokerPort  int    `json:"broker_port"`
	BrokerUser  string `json:"broker_user"`
	BrokerPass  string `json:"broker_pass"`
	UseTLS      bool   `json:"use_tls"`
	CACertPath  string `json:"ca_cert_path"`
	TopicPrefix string `json:"topic_prefix"`
	ClientID    string `json:"client_id"`
}

// Enabled reports whether a broker has been configured.
func (m MQTTConfig) Enabled() bool {
	return m.BrokerHost != ""
}

// BrokerURL returns the MQTT broker URL
func (m MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	if m.UseTLS {
		scheme = "tcps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, m.BrokerHost, m.BrokerPort)
}

// GetAPIKey retrieves the dashboard API key from the environment.
func GetAPIKey() (string, error) {
	apiKey := strings.TrimSpace(os.Getenv(APIKeyEnv))
	if apiKey == "" {
		return "", &ConfigError{Key: APIKeyEnv, Reason: "not found in environment variables"}
	}
	return apiKey, nil
}

// Load loads configuration from environment variables with fallback defaults
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv builds the configuration from the current process environment only.
func FromEnv() (*Config, error) {
	apiKey, err := GetAPIKey()
	if err != nil {
		return nil, err
	}

	var errs error
	timeout, err := getDuration("MERAKI_HTTP_TIMEOUT", 0)
	errs = multierr.Append(errs, err)
	enableCaller, err := getBool("LOG_ENABLE_CALLER", false)
	errs = multierr.Append(errs, err)
	brokerPort, err := getInt("BROKER_PORT", 1883)
	errs = multierr.Append(errs, err)
	useTLS, err := getBool("BROKER_TLS", false)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return nil, fmt.Errorf("invalid configuration: %w", errs)
	}

	config := &Config{
		Dashboard: DashboardConfig{
			BaseURL:   getEnv("MERAKI_BASE_URL", DefaultBaseURL),
			APIKey:    apiKey,
			UserAgent: getEnv("MERAKI_USER_AGENT", DefaultUserAgent),
			Timeout:   timeout,
		},
		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "."),
		},
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			Format:       getEnv("LOG_FORMAT", "text"),
			Output:       getEnv("LOG_OUTPUT", "stderr"),
			EnableCaller: enableCaller,
		},
		MQTT: MQTTConfig{
			BrokerHost:  getEnv("BROKER_HOST", ""),
			BrokerPort:  brokerPort,
			BrokerUser:  getEnv("BROKER_USER", ""),
			BrokerPass:  getEnv("BROKER_PASS", ""),
			UseTLS:      useTLS,
			CACertPath:  getEnv("BROKER_CA_FILE", ""),
			TopicPrefix: getEnv("MQTT_TOPIC_PREFIX", DefaultTopicPrefix),
			ClientID:    getEnv("MQTT_CLIENT_ID", "mdc-report"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Dashboard.APIKey == "" {
		return &ConfigError{Key: APIKeyEnv, Reason: "is required"}
	}
	u, err := url.Parse(c.Dashboard.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Key: "MERAKI_BASE_URL", Reason: fmt.Sprintf("must be an absolute URL, got %q", c.Dashboard.BaseURL)}
	}
	if c.Dashboard.Timeout < 0 {
		return &ConfigError{Key: "MERAKI_HTTP_TIMEOUT", Reason: "must not be negative"}
	}
	if c.MQTT.Enabled() && (c.MQTT.BrokerPort <= 0 || c.MQTT.BrokerPort > 65535) {
		return &ConfigError{Key: "BROKER_PORT", Reason: fmt.Sprintf("out of range: %d", c.MQTT.BrokerPort)}
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, &ConfigError{Key: key, Reason: fmt.Sprintf("is not an integer: %q", value)}
	}
	return intValue, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if value == "1" || value == "true" || value == "TRUE" {
		return true, nil
	}
	if value == "0" || value == "false" || value == "FALSE" {
		return false, nil
	}
	return defaultValue, &ConfigError{Key: key, Reason: fmt.Sprintf("invalid %q (expected true/false or 1/0)", value)}
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, &ConfigError{Key: key, Reason: fmt.Sprintf("is not a duration: %q", value)}
	}
	return duration, nil
}
