// Package emitter forwards journal entries and panel snapshots to an MQTT
// broker for dashboards and other listeners.
package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"panelsound/internal/logger"
	"panelsound/internal/models"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	disconnectMs   = 250
)

var ErrNotConnected = errors.New("mqtt not connected")

// Options configure the broker connection.
type Options struct {
	Broker   string
	ClientID string
	Topic    string
}

// publisher is the part of mqtt.Client the emitter uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTEmitter publishes each journal entry to <topic>/events and the latest
// snapshot, retained, to <topic>/state.
type MQTTEmitter struct {
	log    *logger.Logger
	opts   Options
	client mqtt.Client
	pub    publisher

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

func NewMQTTEmitter(opts Options, log *logger.Logger) *MQTTEmitter {
	if log == nil {
		log = logger.NewNop()
	}
	return &MQTTEmitter{log: log, opts: opts}
}

// Connect dials the broker with auto-reconnect enabled.
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	o := mqtt.NewClientOptions()
	o.AddBroker(e.opts.Broker)
	o.SetClientID(e.opts.ClientID)
	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(2 * time.Second)
	o.SetMaxReconnectInterval(30 * time.Second)
	o.OnConnect = func(mqtt.Client) {
		e.setConnected(true)
		e.log.Infow("mqtt_connected", "broker", e.opts.Broker, "client_id", e.opts.ClientID)
	}
	o.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.setConnected(false)
		e.log.Warnw("mqtt_connection_lost", "broker", e.opts.Broker, "error", err)
	}

	e.client = mqtt.NewClient(o)
	e.pub = e.client

	token := e.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(connectTimeout):
		return fmt.Errorf("mqtt connect to %s: timeout", e.opts.Broker)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", e.opts.Broker, err)
	}
	e.setConnected(true)
	return nil
}

// Publish sends one journal entry and the snapshot taken right after it.
func (e *MQTTEmitter) Publish(_ context.Context, ev models.PanelEvent, snap models.PanelSnapshot) error {
	if !e.isConnected() {
		e.countError()
		return ErrNotConnected
	}
	if err := e.send(e.opts.Topic+"/events", false, ev); err != nil {
		return err
	}
	return e.send(e.opts.Topic+"/state", true, snap)
}

func (e *MQTTEmitter) send(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		e.countError()
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	token := e.pub.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.countError()
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()
	e.log.Debugw("mqtt_published", "topic", topic, "size", len(payload))
	return nil
}

// Disconnect closes the broker connection.
func (e *MQTTEmitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(disconnectMs)
		e.log.Infow("mqtt_disconnected")
	}
	e.setConnected(false)
}

// Stats returns publish counters.
func (e *MQTTEmitter) Stats() (published, failed uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.published, e.errors
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
