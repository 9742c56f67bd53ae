package node

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/session"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

type fakeBus struct {
	mu         sync.Mutex
	group      string
	nodeID     string
	inbox      *session.Inbox
	subscribed []string
	published  []session.Message
	discarded  []string
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		group:  "zone-a",
		nodeID: "node-aa00aa00aa00-0",
		inbox:  session.NewInbox(),
	}
}

func (b *fakeBus) Group() string           { return b.group }
func (b *fakeBus) NodeID() string          { return b.nodeID }
func (b *fakeBus) DescriptorTopic() string { return wire.DescriptorTopic(b.group, b.nodeID) }

func (b *fakeBus) Subscribe(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribed = append(b.subscribed, topic)
	return nil
}

func (b *fakeBus) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, session.Message{Topic: topic, Payload: payload})
	return nil
}

func (b *fakeBus) PopMessage(deadline time.Time) (session.Message, bool) {
	return b.inbox.Pop(deadline)
}

func (b *fakeBus) Requeue(msg session.Message) { b.inbox.Put(msg) }

func (b *fakeBus) Discard(msg session.Message, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.discarded = append(b.discarded, reason)
}

func (b *fakeBus) publishes() []session.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]session.Message(nil), b.published...)
}

func testConfig() Config {
	return Config{
		SerialNumber: "aa00aa00aa00",
		HardwareName: "Adafruit QT Py ESP32-S3",
		AppName:      "sensor-app",
		AppVersion:   "2.1",
		IPAddress:    "172.16.0.9",
	}
}

func commandFrom(senderNode, command, messageID string) session.Message {
	payload := &wire.ActionPayload{
		Action: wire.ActionInformation{Command: command, MessageID: messageID},
		Sender: wire.NewSender(wire.DescriptorTopic("zone-a", senderNode), wire.StatusInformation{}),
	}
	data, err := wire.EncodeAction(payload)
	if err != nil {
		panic(err)
	}
	return session.Message{Topic: wire.CommandTopic("zone-a", "node-aa00aa00aa00-0"), Payload: data}
}

func TestStartAnnouncesDescriptor(t *testing.T) {
	bus := newFakeBus()
	svc := New(testConfig(), bus)
	require.NoError(t, svc.Start())

	assert.Contains(t, bus.subscribed, wire.BroadcastTopic("zone-a"))
	assert.Contains(t, bus.subscribed, wire.CommandTopic("zone-a", bus.nodeID))

	pubs := bus.publishes()
	require.Len(t, pubs, 1)
	assert.Equal(t, bus.DescriptorTopic(), pubs[0].Topic)

	descriptor, err := wire.DecodeDescriptor(pubs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "aa00aa00aa00", descriptor.Descriptor.SerialNumber)
	assert.Equal(t, "sensor-app", descriptor.Descriptor.Notice.Comment)
	assert.Equal(t, "2.1", descriptor.Descriptor.Notice.Version)
}

func TestIdentifyAnswersWithDescriptorAndResult(t *testing.T) {
	bus := newFakeBus()
	svc := New(testConfig(), bus)

	bus.inbox.Put(commandFrom("controller-1", wire.CommandIdentify, "identify-1"))
	msg, _ := bus.inbox.Pop(time.Now())
	svc.dispatch(msg)

	pubs := bus.publishes()
	require.Len(t, pubs, 2, "want one descriptor and one result")

	descriptor, err := wire.DecodeDescriptor(pubs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, bus.nodeID, descriptor.Descriptor.NodeID)

	assert.Equal(t, wire.ResultTopic("zone-a", bus.nodeID), pubs[1].Topic)
	result, err := wire.DecodeAction(pubs[1].Payload)
	require.NoError(t, err)
	assert.Equal(t, "identify-1", result.Action.MessageID)
	assert.True(t, result.Action.Complete())
	assert.Equal(t, "aa00aa00aa00", result.Action.Parameters["serial_number"])
	assert.True(t, result.IsFrom(bus.DescriptorTopic()))
}

func TestStatusAnswersWithReadings(t *testing.T) {
	bus := newFakeBus()
	svc := New(testConfig(), bus)

	bus.inbox.Put(commandFrom("controller-1", wire.CommandStatus, "status-1"))
	msg, _ := bus.inbox.Pop(time.Now())
	svc.dispatch(msg)

	pubs := bus.publishes()
	require.Len(t, pubs, 1)
	result, err := wire.DecodeAction(pubs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "status-1", result.Action.MessageID)
	assert.True(t, result.Action.Complete())
	assert.Contains(t, result.Action.Parameters, "free_memory")
}

func TestUnknownCommandStillAnswers(t *testing.T) {
	bus := newFakeBus()
	svc := New(testConfig(), bus)

	bus.inbox.Put(commandFrom("controller-1", "calibrate", "calibrate-1"))
	msg, _ := bus.inbox.Pop(time.Now())
	svc.dispatch(msg)

	pubs := bus.publishes()
	require.Len(t, pubs, 1)
	result, err := wire.DecodeAction(pubs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "calibrate-1", result.Action.MessageID)
	assert.Contains(t, result.Action.Parameters, "error")
}

func TestSelfOriginatedIsDropped(t *testing.T) {
	bus := newFakeBus()
	svc := New(testConfig(), bus)

	// The node's own result looping back through the broadcast topic.
	own := &wire.ActionPayload{
		Action: wire.ActionInformation{Command: wire.CommandIdentify, MessageID: "identify-9"},
		Sender: wire.NewSender(bus.DescriptorTopic(), wire.StatusInformation{}),
	}
	data, _ := wire.EncodeAction(own)
	svc.dispatch(session.Message{Topic: wire.BroadcastTopic("zone-a"), Payload: data})

	assert.Empty(t, bus.publishes())
	assert.Equal(t, []string{"self-originated"}, bus.discarded)
}

func TestForeignResultIsRequeued(t *testing.T) {
	bus := newFakeBus()
	svc := New(testConfig(), bus)

	other := &wire.ActionPayload{
		Action: wire.ActionInformation{Command: wire.CommandStatus, MessageID: "status-4"},
		Sender: wire.NewSender(wire.DescriptorTopic("zone-a", "node-other"), wire.StatusInformation{}),
	}
	other.Action.SetComplete(true)
	data, _ := wire.EncodeAction(other)
	svc.dispatch(session.Message{Topic: wire.BroadcastTopic("zone-a"), Payload: data})

	assert.Empty(t, bus.publishes())
	assert.Equal(t, 1, bus.inbox.Len(), "completed foreign result should be requeued")
}

func TestCustomHandler(t *testing.T) {
	bus := newFakeBus()
	svc := New(testConfig(), bus)
	svc.Handle("sample", func(request *wire.ActionPayload) (map[string]any, error) {
		return map[string]any{"channel_0": "3.14"}, nil
	})

	bus.inbox.Put(commandFrom("controller-1", "sample", "sample-1"))
	msg, _ := bus.inbox.Pop(time.Now())
	svc.dispatch(msg)

	pubs := bus.publishes()
	require.Len(t, pubs, 1)
	result, err := wire.DecodeAction(pubs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "3.14", result.Action.Parameters["channel_0"])
}
