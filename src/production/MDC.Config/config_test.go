package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAPIKeyMissing(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	key, err := GetAPIKey()
	require.Error(t, err)
	assert.Empty(t, key)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, APIKeyEnv, cfgErr.Key)
	assert.Contains(t, err.Error(), "MERAKI_API_KEY not found")
}

func TestGetAPIKeyWhitespaceIsMissing(t *testing.T) {
	t.Setenv(APIKeyEnv, "   ")

	_, err := GetAPIKey()
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestGetAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, " abc123 ")

	key, err := GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "key")
	for _, k := range []string{
		"MERAKI_BASE_URL", "MERAKI_HTTP_TIMEOUT", "MERAKI_USER_AGENT", "OUTPUT_DIR",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "LOG_ENABLE_CALLER",
		"BROKER_HOST", "BROKER_PORT", "BROKER_TLS", "MQTT_TOPIC_PREFIX", "MQTT_CLIENT_ID",
	} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Dashboard.BaseURL)
	assert.Equal(t, "key", cfg.Dashboard.APIKey)
	assert.Equal(t, DefaultUserAgent, cfg.Dashboard.UserAgent)
	assert.Zero(t, cfg.Dashboard.Timeout)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.False(t, cfg.MQTT.Enabled())
	assert.Equal(t, 1883, cfg.MQTT.BrokerPort)
	assert.Equal(t, DefaultTopicPrefix, cfg.MQTT.TopicPrefix)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(APIKeyEnv, "key")
	t.Setenv("MERAKI_BASE_URL", "http://127.0.0.1:8080/api/v1")
	t.Setenv("MERAKI_HTTP_TIMEOUT", "5s")
	t.Setenv("OUTPUT_DIR", "/tmp/reports")
	t.Setenv("BROKER_HOST", "broker.local")
	t.Setenv("BROKER_PORT", "8883")
	t.Setenv("BROKER_TLS", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080/api/v1", cfg.Dashboard.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Dashboard.Timeout)
	assert.Equal(t, "/tmp/reports", cfg.Output.Dir)
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, "tcps://broker.local:8883", cfg.MQTT.BrokerURL())
}

func TestFromEnvMissingKeyFailsFirst(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	t.Setenv("MERAKI_HTTP_TIMEOUT", "not-a-duration")

	_, err := FromEnv()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, APIKeyEnv, cfgErr.Key)
}

func TestFromEnvCollectsParseErrors(t *testing.T) {
	t.Setenv(APIKeyEnv, "key")
	t.Setenv("MERAKI_HTTP_TIMEOUT", "soon")
	t.Setenv("BROKER_PORT", "eighteen")
	t.Setenv("BROKER_TLS", "maybe")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MERAKI_HTTP_TIMEOUT")
	assert.Contains(t, err.Error(), "BROKER_PORT")
	assert.Contains(t, err.Error(), "BROKER_TLS")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Dashboard: DashboardConfig{BaseURL: DefaultBaseURL, APIKey: "k"},
			MQTT:      MQTTConfig{BrokerPort: 1883},
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.Dashboard.BaseURL = "api.meraki.com"
	assert.Error(t, c.Validate())

	c = valid()
	c.Dashboard.Timeout = -time.Second
	assert.Error(t, c.Validate())

	c = valid()
	c.MQTT.BrokerHost = "broker"
	c.MQTT.BrokerPort = 70000
	assert.Error(t, c.Validate())

	// port is irrelevant while publishing is disabled
	c = valid()
	c.MQTT.BrokerPort = 0
	assert.NoError(t, c.Validate())
}
