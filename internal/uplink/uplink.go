// Package uplink publishes access events to an MQTT broker for site-level
// integrations (display boards, guard consoles). Publishing is best-effort:
// a broker outage never blocks the access pipeline.
package uplink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/logging"
)

// Config holds broker settings.
type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	// TopicPrefix defaults to "pibox".
	TopicPrefix string
}

// Publisher forwards bus events to MQTT.
type Publisher struct {
	client mqtt.Client
	prefix string
	logger *slog.Logger
	unsub  func()
}

// New connects to the broker and starts forwarding. Connection retries run
// in the background; events published while disconnected are dropped.
func New(cfg Config, bus *events.Bus) (*Publisher, error) {
	if cfg.BrokerURL == "" {
		return nil, fmt.Errorf("uplink: broker URL required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "pibox-controller"
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "pibox"
	}

	p := &Publisher{
		prefix: cfg.TopicPrefix,
		logger: logging.GetLogger("uplink"),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(10 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			p.logger.Info("broker connected", "broker", cfg.BrokerURL)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			p.logger.Warn("broker connection lost", "error", err)
		})

	p.client = mqtt.NewClient(opts)
	if token := p.client.Connect(); token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("uplink: connect: %w", token.Error())
	}

	unsubAccess := bus.Subscribe(func(ev events.AccessEvent) {
		p.publish("access", ev)
	})
	unsubBarrier := bus.Subscribe(func(ev events.BarrierStatusEvent) {
		p.publish("barrier", ev)
	})
	p.unsub = func() {
		unsubAccess()
		unsubBarrier()
	}
	return p, nil
}

func (p *Publisher) publish(topic string, payload any) {
	if !p.client.IsConnectionOpen() {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("payload marshal failed", "topic", topic, "error", err)
		return
	}
	full := p.prefix + "/" + topic
	token := p.client.Publish(full, 1, false, data)
	go func() {
		if token.WaitTimeout(10*time.Second) && token.Error() != nil {
			p.logger.Warn("publish failed", "topic", full, "error", token.Error())
		}
	}()
}

// Close detaches from the bus and disconnects from the broker.
func (p *Publisher) Close() {
	if p.unsub != nil {
		p.unsub()
	}
	p.client.Disconnect(250)
}
