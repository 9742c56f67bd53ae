package session

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// Config configures a session.
type Config struct {
	// BrokerHost and BrokerPort locate the MQTT broker.
	BrokerHost string
	BrokerPort int

	// Group is the MQTT group this session operates in.
	Group string

	// NodeID is this session's own identity on the topic namespace.
	// Defaults to "controller-{uuid}" when empty.
	NodeID string

	// AppName and AppVersion describe the running application and are
	// published in this session's descriptor notice.
	AppName    string
	AppVersion string

	// ConnectTimeout bounds the broker connect handshake (default: 10s).
	ConnectTimeout time.Duration

	// SettleDelay is the fixed pause after establishing a new
	// subscription. The broker acknowledges subscriptions
	// asynchronously; a short settle window is a conservative
	// simplification instead of an explicit ack wait (default: 100ms).
	SettleDelay time.Duration

	// Logger receives protocol events. Nil disables logging.
	Logger log.Logger
}

func (c *Config) applyDefaults() {
	if c.NodeID == "" {
		c.NodeID = fmt.Sprintf("controller-%s", uuid.NewString()[:8])
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = 100 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
}

// publisher abstracts the broker client so the protocol logic can be
// exercised without a live broker.
type publisher interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) error
	Disconnect()
}

// Session owns one multiplexed broker connection and its shared inbox.
// Exactly one Session exists per logical connect operation.
type Session struct {
	cfg             Config
	id              string
	descriptorTopic string

	transport publisher
	inbox     *Inbox
	msgIDs    *wire.MessageIDSource

	mu     sync.Mutex
	subs   map[string]struct{}
	closed bool
}

// Open connects to the broker and returns a ready session.
// A refused or timed-out connection surfaces as ErrBrokerUnreachable,
// which callers must distinguish from a connected session that later
// discovers zero nodes.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	cfg.applyDefaults()
	s := newSession(cfg)

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.BrokerHost, cfg.BrokerPort)).
		SetClientID(cfg.NodeID).
		SetCleanSession(true)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, m mqtt.Message) {
		s.receive(m.Topic(), m.Payload())
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()

	timeout := cfg.ConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("%w: connect timed out after %s", ErrBrokerUnreachable, timeout)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnreachable, err)
	}

	s.transport = &pahoTransport{client: client, onMessage: s.receive}
	s.logState("", "SessionOpen", "broker connected")
	return s, nil
}

func newSession(cfg Config) *Session {
	return &Session{
		cfg:             cfg,
		id:              uuid.NewString(),
		descriptorTopic: wire.DescriptorTopic(cfg.Group, cfg.NodeID),
		inbox:           NewInbox(),
		msgIDs:          wire.NewMessageIDSource(),
		subs:            make(map[string]struct{}),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Group returns the session's MQTT group.
func (s *Session) Group() string { return s.cfg.Group }

// NodeID returns this session's own identity.
func (s *Session) NodeID() string { return s.cfg.NodeID }

// DescriptorTopic returns this session's self-identification token.
func (s *Session) DescriptorTopic() string { return s.descriptorTopic }

// receive feeds the shared inbox from the broker callback.
func (s *Session) receive(topic string, payload []byte) {
	s.inbox.Put(Message{Topic: topic, Payload: payload})
	s.logMessage(log.DirectionIn, topic, payload)
}

// Subscribe establishes a subscription unless one already exists for the
// topic. New subscriptions are followed by the configured settle delay.
func (s *Session) Subscribe(topic string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if _, ok := s.subs[topic]; ok {
		s.mu.Unlock()
		return nil
	}
	s.subs[topic] = struct{}{}
	s.mu.Unlock()

	if err := s.transport.Subscribe(topic); err != nil {
		s.mu.Lock()
		delete(s.subs, topic)
		s.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	time.Sleep(s.cfg.SettleDelay)
	return nil
}

// Publish sends a raw payload to a topic.
func (s *Session) Publish(topic string, payload []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	if err := s.transport.Publish(topic, payload); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	s.logMessage(log.DirectionOut, topic, payload)
	return nil
}

// Descriptor builds this session's own descriptor payload.
func (s *Session) Descriptor() *wire.DescriptorPayload {
	hostname, _ := os.Hostname()
	return &wire.DescriptorPayload{
		Descriptor: wire.DescriptorInformation{
			NodeID:               s.cfg.NodeID,
			SerialNumber:         s.id,
			HardwareName:         runtime.GOARCH,
			SystemName:           hostname,
			PythonImplementation: fmt.Sprintf("go-%s", runtime.Version()),
			IPAddress:            outboundIP(),
			Notice: wire.NoticeInformation{
				Comment:   s.cfg.AppName,
				Version:   s.cfg.AppVersion,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		},
		Sender: wire.NewSender(s.descriptorTopic, CurrentStatus()),
	}
}

// PublishDescriptor announces this session on its own descriptor topic.
func (s *Session) PublishDescriptor() error {
	data, err := wire.EncodeDescriptor(s.Descriptor())
	if err != nil {
		return err
	}
	return s.Publish(s.descriptorTopic, data)
}

// NextAction builds an action payload with the next per-command message
// ID and this session's sender identity.
func (s *Session) NextAction(command string, parameters map[string]any) *wire.ActionPayload {
	return &wire.ActionPayload{
		Action: wire.ActionInformation{
			Command:    command,
			Parameters: parameters,
			MessageID:  s.msgIDs.Next(command),
		},
		Sender: wire.NewSender(s.descriptorTopic, CurrentStatus()),
	}
}

// PopMessage removes the oldest inbox message, waiting until deadline.
func (s *Session) PopMessage(deadline time.Time) (Message, bool) {
	return s.inbox.Pop(deadline)
}

// Requeue returns an unconsumed message to the inbox so other concurrent
// listeners still observe it.
func (s *Session) Requeue(msg Message) {
	s.inbox.Put(msg)
}

// Discard drops a message and logs the reason at debug level. No message
// is ever silently swallowed by the matching logic.
func (s *Session) Discard(msg Message, reason string) {
	event := log.Event{
		Timestamp: time.Now().UTC(),
		SessionID: s.id,
		Direction: log.DirectionIn,
		Category:  log.CategoryDiscard,
		Group:     s.cfg.Group,
		Topic:     msg.Topic,
		Discard:   &log.DiscardEvent{Reason: reason},
	}
	if payload, err := wire.DecodeAction(msg.Payload); err == nil {
		event.Discard.MessageID = payload.Action.MessageID
	}
	s.cfg.Logger.Log(event)
}

// Close tears the session down. Safe to call multiple times.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.transport.Disconnect()
	s.logState("SessionOpen", "SessionClosed", "")
}

func (s *Session) logMessage(direction log.Direction, topic string, payload []byte) {
	event := log.Event{
		Timestamp: time.Now().UTC(),
		SessionID: s.id,
		Direction: direction,
		Category:  log.CategoryMessage,
		Group:     s.cfg.Group,
		Topic:     topic,
		Message: &log.MessageEvent{
			Kind: wire.Classify(payload).String(),
			Size: len(payload),
		},
	}
	if payload, err := wire.DecodeAction(payload); err == nil {
		event.Message.MessageID = payload.Action.MessageID
		event.Message.Command = payload.Action.Command
	}
	s.cfg.Logger.Log(event)
}

func (s *Session) logState(oldState, newState, reason string) {
	s.cfg.Logger.Log(log.Event{
		Timestamp:   time.Now().UTC(),
		SessionID:   s.id,
		Direction:   log.DirectionNone,
		Category:    log.CategoryState,
		Group:       s.cfg.Group,
		StateChange: &log.StateChangeEvent{OldState: oldState, NewState: newState, Reason: reason},
	})
}

// outboundIP reports the local address used for outbound traffic.
func outboundIP() string {
	conn, err := net.Dial("udp", "198.51.100.1:53")
	if err != nil {
		return ""
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return ""
}

// pahoTransport adapts the paho client to the publisher interface.
type pahoTransport struct {
	client    mqtt.Client
	onMessage func(topic string, payload []byte)
}

func (t *pahoTransport) Publish(topic string, payload []byte) error {
	token := t.client.Publish(topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

func (t *pahoTransport) Subscribe(topic string) error {
	token := t.client.Subscribe(topic, 0, func(_ mqtt.Client, m mqtt.Message) {
		t.onMessage(m.Topic(), m.Payload())
	})
	token.Wait()
	return token.Error()
}

func (t *pahoTransport) Disconnect() {
	t.client.Disconnect(250)
}
