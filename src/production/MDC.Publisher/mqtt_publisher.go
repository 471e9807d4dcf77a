package publisher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Config"
	logger "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Logger"
	mdcmodels "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Models"
)

const (
	publishQoS        byte = 1
	disconnectQuiesce      = 500 // ms
)

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	IsConnected() bool
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher pushes finished network reports to a broker. The connection
// is opened on first publish.
type MQTTPublisher struct {
	cfg       config.MQTTConfig
	logger    *logger.Logger
	newClient func(*mqtt.ClientOptions) mqttClient

	mu     sync.Mutex
	client mqttClient
}

// NewMQTTPublisher validates the TLS material up front so a bad CA file is
// reported at startup rather than on the first report.
func NewMQTTPublisher(cfg config.MQTTConfig, log *logger.Logger) (*MQTTPublisher, error) {
	if cfg.UseTLS {
		if _, err := tlsConfig(cfg.CACertPath); err != nil {
			return nil, err
		}
	}
	return &MQTTPublisher{
		cfg:    cfg,
		logger: log.WithComponent("mqtt_publisher"),
		newClient: func(opts *mqtt.ClientOptions) mqttClient {
			return mqtt.NewClient(opts)
		},
	}, nil
}

// Topic returns the topic a network's report is published on.
func (p *MQTTPublisher) Topic(networkID string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(p.cfg.TopicPrefix, "/"), networkID)
}

// PublishReport sends the report retained at QoS 1 so late subscribers get
// the most recent one.
func (p *MQTTPublisher) PublishReport(ctx context.Context, networkID string, report mdcmodels.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	client, err := p.connect(ctx)
	if err != nil {
		return err
	}

	topic := p.Topic(networkID)
	if err := wait(ctx, client.Publish(topic, publishQoS, true, payload)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.WithFields(map[string]interface{}{
		"topic": topic,
		"bytes": len(payload),
	}).Info("Published network report")
	return nil
}

// Close disconnects from the broker if a connection was opened.
func (p *MQTTPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
	}
	p.client = nil
}

func (p *MQTTPublisher) connect(ctx context.Context) (mqttClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil && p.client.IsConnected() {
		return p.client, nil
	}

	opts, err := p.options()
	if err != nil {
		return nil, err
	}

	client := p.newClient(opts)
	if err := wait(ctx, client.Connect()); err != nil {
		// stop the client's own connect attempts
		client.Disconnect(0)
		return nil, fmt.Errorf("failed to connect to %s: %w", p.cfg.BrokerURL(), err)
	}
	p.logger.WithField("broker", p.cfg.BrokerURL()).Debug("mqtt connected")

	p.client = client
	return client, nil
}

func (p *MQTTPublisher) options() (*mqtt.ClientOptions, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(p.cfg.BrokerURL()).
		SetClientID(p.cfg.ClientID).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(false).
		SetCleanSession(true)

	if p.cfg.BrokerUser != "" {
		opts.SetUsername(p.cfg.BrokerUser)
		opts.SetPassword(p.cfg.BrokerPass)
	}

	if p.cfg.UseTLS {
		tlsCfg, err := tlsConfig(p.cfg.CACertPath)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		p.logger.WithError(err).Warn("mqtt connection lost")
	}
	return opts, nil
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, &config.ConfigError{Key: "BROKER_CA_FILE", Reason: err.Error()}
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, &config.ConfigError{Key: "BROKER_CA_FILE", Reason: "contains no PEM certificates"}
	}
	cfg.RootCAs = cp
	return cfg, nil
}
