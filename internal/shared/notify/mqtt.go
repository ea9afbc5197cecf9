package notify

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const mqttPublishTimeout = 2 * time.Second

type MQTTConfig struct {
	URL      string
	ClientID string
	Username string
	Password string
}

// MQTTPublisher publishes retained QoS 0 messages. While the broker is unreachable messages
// are dropped; the client reconnects in the background.
type MQTTPublisher struct {
	client mqtt.Client
	logger *zap.Logger
}

// NewMQTTPublisher starts connecting to the broker without waiting for it
func NewMQTTPublisher(cfg MQTTConfig, logger *zap.Logger) *MQTTPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("MQTT connected", zap.String("broker", cfg.URL))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("MQTT connection lost", zap.Error(err))
		})

	client := mqtt.NewClient(opts)
	client.Connect()
	return NewMQTTPublisherWithClient(client, logger)
}

func NewMQTTPublisherWithClient(client mqtt.Client, logger *zap.Logger) *MQTTPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTPublisher{client: client, logger: logger}
}

func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.logger.Debug("MQTT not connected, dropping message", zap.String("topic", topic))
		return nil
	}
	token := p.client.Publish(topic, 0, true, payload)

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
