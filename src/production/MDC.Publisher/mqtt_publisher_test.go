package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Config"
	logger "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Logger"
	mdcmodels "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Models"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	connected    bool
	connects     int
	disconnects  int
	connectToken mqtt.Token
	publishToken mqtt.Token
	messages     []published
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Connect() mqtt.Token {
	c.connects++
	if c.connectToken != nil {
		return c.connectToken
	}
	c.connected = true
	return doneToken(nil)
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	if c.publishToken != nil {
		return c.publishToken
	}
	return doneToken(nil)
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnects++
	c.connected = false
}

func newTestPublisher(t *testing.T, fc *fakeClient) *MQTTPublisher {
	t.Helper()
	p, err := NewMQTTPublisher(config.MQTTConfig{
		BrokerHost:  "localhost",
		BrokerPort:  1883,
		TopicPrefix: "meraki/reports/",
		ClientID:    "test",
	}, logger.Nop())
	require.NoError(t, err)
	p.newClient = func(*mqtt.ClientOptions) mqttClient { return fc }
	return p
}

func TestPublishReport(t *testing.T) {
	fc := &fakeClient{}
	p := newTestPublisher(t, fc)

	report := mdcmodels.Report{
		Timestamp:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Organization: "Acme",
		Network:      "HQ",
		Summary:      mdcmodels.ReportSummary{TotalDevices: 1, OnlineDevices: 1, AvailabilityPercentage: 100},
		Devices:      []mdcmodels.DetailedDevice{{Device: mdcmodels.Device{Serial: "A"}, Status: mdcmodels.DeviceStateOnline}},
	}
	require.NoError(t, p.PublishReport(context.Background(), "L_1", report))
	require.NoError(t, p.PublishReport(context.Background(), "L_2", report))

	assert.Equal(t, 1, fc.connects)
	require.Len(t, fc.messages, 2)
	assert.Equal(t, "meraki/reports/L_1", fc.messages[0].topic)
	assert.Equal(t, "meraki/reports/L_2", fc.messages[1].topic)
	assert.Equal(t, byte(1), fc.messages[0].qos)
	assert.True(t, fc.messages[0].retained)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(fc.messages[0].payload, &decoded))
	assert.Equal(t, "HQ", decoded["network"])
	assert.Equal(t, "2024-01-02T03:04:05Z", decoded["timestamp"])

	p.Close()
	assert.Equal(t, 1, fc.disconnects)
}

func TestPublishConnectFailure(t *testing.T) {
	fc := &fakeClient{connectToken: doneToken(errors.New("connection refused"))}
	p := newTestPublisher(t, fc)

	err := p.PublishReport(context.Background(), "L_1", mdcmodels.Report{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tcp://localhost:1883")
	assert.Empty(t, fc.messages)
	assert.Equal(t, 1, fc.disconnects)
}

func TestPublishHonoursContext(t *testing.T) {
	fc := &fakeClient{publishToken: pendingToken()}
	p := newTestPublisher(t, fc)
	require.NoError(t, p.PublishReport(context.Background(), "warm", mdcmodels.Report{}))
	fc.publishToken = pendingToken()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.PublishReport(ctx, "L_1", mdcmodels.Report{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCancelledConnectDisconnectsClient(t *testing.T) {
	fc := &fakeClient{connectToken: pendingToken()}
	p := newTestPublisher(t, fc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.PublishReport(ctx, "L_1", mdcmodels.Report{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fc.disconnects)
	assert.Empty(t, fc.messages)
}

func TestCloseWithoutConnect(t *testing.T) {
	fc := &fakeClient{}
	p := newTestPublisher(t, fc)

	p.Close()
	assert.Zero(t, fc.disconnects)
}

func TestNewMQTTPublisherRejectsBadCAFile(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caFile, []byte("not a certificate"), 0o600))

	_, err := NewMQTTPublisher(config.MQTTConfig{BrokerHost: "h", BrokerPort: 8883, UseTLS: true, CACertPath: caFile}, logger.Nop())
	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "BROKER_CA_FILE", cfgErr.Key)

	_, err = NewMQTTPublisher(config.MQTTConfig{BrokerHost: "h", BrokerPort: 8883, UseTLS: true, CACertPath: caFile + ".missing"}, logger.Nop())
	assert.Error(t, err)
}

func TestTLSWithoutCAFileUsesSystemRoots(t *testing.T) {
	cfg, err := tlsConfig("")
	require.NoError(t, err)
	assert.Nil(t, cfg.RootCAs)
}
