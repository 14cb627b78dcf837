package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"framecast/internal/config"
	"framecast/internal/keyframe"
	"framecast/internal/logging"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// ErrNotConnected is returned by Publish before Connect succeeds.
var ErrNotConnected = errors.New("mqtt not connected")

// Message is the JSON payload published for every keyframe.
type Message struct {
	SessionID   string    `json:"session_id"`
	Scene       string    `json:"scene"`
	UnitIndex   int       `json:"unit_index"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Duration    float64   `json:"duration"`
	Skipped     bool      `json:"skipped"`
	ObjectCount int       `json:"object_count"`
	PublishedAt time.Time `json:"published_at"`
}

// Stats contains emitter statistics.
type Stats struct {
	Connected bool
	Published uint64
	Errors    uint64
}

type publishFunc func(topic string, qos byte, payload []byte) error

// Emitter publishes keyframes to an MQTT broker. It implements keyframe.Sink.
type Emitter struct {
	cfg       config.Events
	scene     string
	sessionID string
	topic     string
	logger    *slog.Logger

	client  mqtt.Client
	publish publishFunc

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// New returns an emitter for scene and session. Call Connect before use.
func New(cfg config.Events, scene, sessionID string, logger *slog.Logger) *Emitter {
	return &Emitter{
		cfg:       cfg,
		scene:     scene,
		sessionID: sessionID,
		topic:     Topic(cfg.Topic, scene),
		logger:    logging.NewComponentLogger(logger, "events"),
	}
}

// Topic returns the topic keyframes of scene are published on.
func Topic(base, scene string) string {
	base = strings.Trim(base, "/")
	if scene == "" {
		return base
	}
	return base + "/" + scene
}

// BrokerURL adds the tcp scheme to bare host:port broker addresses.
func BrokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Connect establishes the broker connection. Reconnects after a lost
// connection happen in the background.
func (e *Emitter) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(BrokerURL(e.cfg.Broker))
	opts.SetClientID(e.cfg.ClientID + "-" + e.sessionID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		e.setConnected(true)
		e.logger.Info("mqtt connection established",
			logging.String(logging.FieldEventType, "mqtt_connected"),
			logging.String("broker", e.cfg.Broker),
			logging.String("topic", e.topic))
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.setConnected(false)
		logging.WarnWithContext(e.logger, "mqtt connection lost", "mqtt_connection_lost",
			logging.Error(err),
			logging.String("broker", e.cfg.Broker),
			logging.String(logging.FieldImpact, "keyframe events are dropped until the broker reconnects"),
			logging.String(logging.FieldErrorHint, "check that the broker is reachable"))
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect to %s: timeout", e.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", e.cfg.Broker, err)
	}

	e.mu.Lock()
	e.client = client
	e.connected = true
	e.publish = func(topic string, qos byte, payload []byte) error {
		token := client.Publish(topic, qos, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			return errors.New("publish timeout")
		}
		return token.Error()
	}
	e.mu.Unlock()
	return nil
}

// Publish sends entry to the scene topic.
func (e *Emitter) Publish(_ context.Context, entry keyframe.Entry) error {
	e.mu.RLock()
	publish, connected := e.publish, e.connected
	e.mu.RUnlock()
	if publish == nil || !connected {
		e.countError()
		return ErrNotConnected
	}

	payload, err := json.Marshal(e.message(entry))
	if err != nil {
		e.countError()
		return fmt.Errorf("marshal keyframe event: %w", err)
	}
	if err := publish(e.topic, byte(e.cfg.QoS), payload); err != nil {
		e.countError()
		return fmt.Errorf("publish keyframe %d: %w", entry.Index, err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()
	e.logger.Debug("keyframe event published",
		logging.String("topic", e.topic),
		logging.Int(logging.FieldUnitIndex, entry.Index),
		logging.Int("size", len(payload)))
	return nil
}

func (e *Emitter) message(entry keyframe.Entry) Message {
	return Message{
		SessionID:   e.sessionID,
		Scene:       e.scene,
		UnitIndex:   entry.Index,
		Kind:        string(entry.Kind),
		Name:        entry.Name,
		Duration:    entry.Duration,
		Skipped:     entry.Skipped,
		ObjectCount: len(entry.Final),
		PublishedAt: entry.PublishedAt.UTC(),
	}
}

// Disconnect closes the broker connection.
func (e *Emitter) Disconnect() {
	e.mu.Lock()
	client := e.client
	e.client = nil
	e.publish = nil
	e.connected = false
	e.mu.Unlock()
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
		e.logger.Info("mqtt disconnected", logging.String(logging.FieldEventType, "mqtt_disconnected"))
	}
}

// Stats returns emitter statistics.
func (e *Emitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{Connected: e.connected, Published: e.published, Errors: e.errors}
}

func (e *Emitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *Emitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
