package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// fakePublisher records publishes and subscriptions without a broker.
type fakePublisher struct {
	mu         sync.Mutex
	published  []Message
	subscribed []string
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, Message{Topic: topic, Payload: payload})
	return nil
}

func (f *fakePublisher) Subscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, topic)
	return nil
}

func (f *fakePublisher) Disconnect() {}

func (f *fakePublisher) subscriptions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subscribed...)
}

func (f *fakePublisher) publishes() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.published...)
}

// captureLogger collects protocol events for assertions.
type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(event log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureLogger) byCategory(category log.Category) []log.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var matched []log.Event
	for _, e := range c.events {
		if e.Category == category {
			matched = append(matched, e)
		}
	}
	return matched
}

func newTestSession(t *testing.T) (*Session, *fakePublisher, *captureLogger) {
	t.Helper()
	logger := &captureLogger{}
	cfg := Config{
		Group:       "zone-a",
		NodeID:      "controller-test",
		SettleDelay: time.Millisecond,
		Logger:      logger,
	}
	cfg.applyDefaults()
	s := newSession(cfg)
	fake := &fakePublisher{}
	s.transport = fake
	return s, fake, logger
}

// resultFrom builds a result payload as a remote node would send it.
func resultFrom(nodeID, messageID string) Message {
	payload := &wire.ActionPayload{
		Action: wire.ActionInformation{
			Command:    wire.CommandIdentify,
			Parameters: map[string]any{"answer": "ok"},
			MessageID:  messageID,
		},
		Sender: wire.NewSender(wire.DescriptorTopic("zone-a", nodeID), wire.StatusInformation{}),
	}
	data, err := wire.EncodeAction(payload)
	if err != nil {
		panic(err)
	}
	return Message{Topic: wire.ResultTopic("zone-a", nodeID), Payload: data}
}

func TestInboxFIFOAndRequeue(t *testing.T) {
	inbox := NewInbox()
	inbox.Put(Message{Topic: "a"})
	inbox.Put(Message{Topic: "b"})

	first, ok := inbox.Pop(time.Now().Add(time.Second))
	if !ok || first.Topic != "a" {
		t.Fatalf("first pop = %+v, %v; want topic a", first, ok)
	}

	// Requeueing appends to the back.
	inbox.Put(first)
	second, _ := inbox.Pop(time.Now().Add(time.Second))
	third, _ := inbox.Pop(time.Now().Add(time.Second))
	if second.Topic != "b" || third.Topic != "a" {
		t.Errorf("pop order after requeue = %q, %q; want b, a", second.Topic, third.Topic)
	}
}

func TestInboxPopTimeoutIsBounded(t *testing.T) {
	inbox := NewInbox()

	budget := 100 * time.Millisecond
	start := time.Now()
	_, ok := inbox.Pop(time.Now().Add(budget))
	elapsed := time.Since(start)

	if ok {
		t.Fatal("Pop returned a message from an empty inbox")
	}
	if elapsed < budget {
		t.Errorf("Pop returned after %s, before the %s deadline", elapsed, budget)
	}
	if elapsed > budget+200*time.Millisecond {
		t.Errorf("Pop took %s, exceeding deadline by too much", elapsed)
	}
}

func TestInboxWakesEveryConsumerForBacklog(t *testing.T) {
	inbox := NewInbox()

	results := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, ok := inbox.Pop(time.Now().Add(2 * time.Second))
			results <- ok
		}()
	}

	// Let both consumers block, then deliver a burst. The coalesced
	// ready signal must be passed along so neither consumer waits out
	// its deadline with a message still queued.
	time.Sleep(50 * time.Millisecond)
	inbox.Put(Message{Topic: "a"})
	inbox.Put(Message{Topic: "b"})

	for i := 0; i < 2; i++ {
		select {
		case ok := <-results:
			if !ok {
				t.Fatal("a consumer timed out with a message still queued")
			}
		case <-time.After(3 * time.Second):
			t.Fatal("a consumer never returned")
		}
	}
}

func TestOpenUnreachableBroker(t *testing.T) {
	cfg := Config{
		BrokerHost:     "127.0.0.1",
		BrokerPort:     1,
		Group:          "zone-a",
		NodeID:         "controller-test",
		ConnectTimeout: 500 * time.Millisecond,
	}

	s, err := Open(context.Background(), cfg)
	if !errors.Is(err, ErrBrokerUnreachable) {
		t.Fatalf("err = %v, want ErrBrokerUnreachable", err)
	}
	if s != nil {
		t.Error("session returned alongside connect error")
	}
}

func TestSubscribeDeduplicates(t *testing.T) {
	s, fake, _ := newTestSession(t)

	topic := wire.BroadcastTopic("zone-a")
	if err := s.Subscribe(topic); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := s.Subscribe(topic); err != nil {
		t.Fatalf("second Subscribe: %v", err)
	}

	if got := fake.subscriptions(); len(got) != 1 {
		t.Errorf("broker saw %d subscriptions, want 1: %v", len(got), got)
	}
}

func TestNextActionMessageIDs(t *testing.T) {
	s, _, _ := newTestSession(t)

	first := s.NextAction(wire.CommandIdentify, nil)
	second := s.NextAction(wire.CommandIdentify, nil)

	if first.Action.MessageID != "identify-1" || second.Action.MessageID != "identify-2" {
		t.Errorf("message IDs = %q, %q; want identify-1, identify-2",
			first.Action.MessageID, second.Action.MessageID)
	}
	if first.Sender.DescriptorTopic != s.DescriptorTopic() {
		t.Errorf("sender topic = %q, want session's own descriptor topic", first.Sender.DescriptorTopic)
	}
}

func TestSendActionPublishesToCommandTopic(t *testing.T) {
	s, fake, _ := newTestSession(t)

	sent, err := s.SendAction("node-1", wire.CommandIdentify, nil)
	if err != nil {
		t.Fatalf("SendAction: %v", err)
	}
	if sent.Action.MessageID != "identify-1" {
		t.Errorf("MessageID = %q", sent.Action.MessageID)
	}

	// The result topic is subscribed before the command is published.
	subs := fake.subscriptions()
	if len(subs) != 1 || subs[0] != "qtpy/v1/zone-a/node-1/result" {
		t.Errorf("subscriptions = %v", subs)
	}
	pubs := fake.publishes()
	if len(pubs) != 1 || pubs[0].Topic != "qtpy/v1/zone-a/node-1/command" {
		t.Errorf("publishes = %v", pubs)
	}
}

func TestMatchResultReturnsMatch(t *testing.T) {
	s, _, _ := newTestSession(t)

	sent, err := s.SendAction("node-1", wire.CommandIdentify, nil)
	if err != nil {
		t.Fatalf("SendAction: %v", err)
	}

	s.inbox.Put(resultFrom("node-1", "identify-1"))

	result, raw, err := s.MatchResult(sent, time.Second)
	if err != nil {
		t.Fatalf("MatchResult: %v", err)
	}
	if result.Action.MessageID != "identify-1" {
		t.Errorf("matched MessageID = %q", result.Action.MessageID)
	}
	if raw.Topic != "qtpy/v1/zone-a/node-1/result" {
		t.Errorf("raw topic = %q", raw.Topic)
	}
}

func TestMatchResultFiltersSelfOriginated(t *testing.T) {
	s, _, logger := newTestSession(t)

	sent, err := s.SendAction("node-1", wire.CommandIdentify, nil)
	if err != nil {
		t.Fatalf("SendAction: %v", err)
	}

	// An echo of our own command: same message ID, our own sender topic.
	echo := &wire.ActionPayload{
		Action: wire.ActionInformation{Command: wire.CommandIdentify, MessageID: "identify-1"},
		Sender: wire.NewSender(s.DescriptorTopic(), wire.StatusInformation{}),
	}
	echoData, _ := wire.EncodeAction(echo)
	s.inbox.Put(Message{Topic: wire.BroadcastTopic("zone-a"), Payload: echoData})
	s.inbox.Put(resultFrom("node-1", "identify-1"))

	result, _, err := s.MatchResult(sent, time.Second)
	if err != nil {
		t.Fatalf("MatchResult: %v", err)
	}
	if result.IsFrom(s.DescriptorTopic()) {
		t.Error("self-originated echo was returned as a match")
	}

	discards := logger.byCategory(log.CategoryDiscard)
	if len(discards) != 1 || discards[0].Discard.Reason != "self-originated" {
		t.Errorf("discard events = %+v, want one self-originated discard", discards)
	}
}

func TestMatchResultRequeuesUnrelatedMessages(t *testing.T) {
	s, _, _ := newTestSession(t)

	sent, err := s.SendAction("node-1", wire.CommandIdentify, nil)
	if err != nil {
		t.Fatalf("SendAction: %v", err)
	}

	// A result for a different exchange must survive this drain.
	unrelated := resultFrom("node-2", "status-7")
	s.inbox.Put(unrelated)
	s.inbox.Put(resultFrom("node-1", "identify-1"))

	if _, _, err := s.MatchResult(sent, time.Second); err != nil {
		t.Fatalf("MatchResult: %v", err)
	}

	msg, ok := s.inbox.Pop(time.Now().Add(100 * time.Millisecond))
	if !ok {
		t.Fatal("unrelated message was not requeued")
	}
	payload, err := wire.DecodeAction(msg.Payload)
	if err != nil || payload.Action.MessageID != "status-7" {
		t.Errorf("requeued message = %+v, err %v", payload, err)
	}
}

func TestMatchResultTimeoutIsBounded(t *testing.T) {
	s, _, _ := newTestSession(t)

	sent, err := s.SendAction("node-1", wire.CommandIdentify, nil)
	if err != nil {
		t.Fatalf("SendAction: %v", err)
	}

	budget := 200 * time.Millisecond
	start := time.Now()
	_, _, err = s.MatchResult(sent, budget)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrActionTimeout) {
		t.Fatalf("err = %v, want ErrActionTimeout", err)
	}
	if elapsed > budget+300*time.Millisecond {
		t.Errorf("MatchResult took %s for a %s budget", elapsed, budget)
	}
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Close()

	if err := s.Publish("qtpy/v1/zone-a/broadcast", nil); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Publish after Close = %v, want ErrSessionClosed", err)
	}
	if err := s.Subscribe("qtpy/v1/zone-a/broadcast"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrSessionClosed", err)
	}

	// Close is idempotent.
	s.Close()
}
