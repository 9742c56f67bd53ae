package log

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func sampleEvent(category Category) Event {
	event := Event{
		Timestamp: time.Now().UTC(),
		SessionID: "0c7c4f3a-1111-2222-3333-444455556666",
		Direction: DirectionIn,
		Category:  category,
		Group:     "zone-a",
		Topic:     "qtpy/v1/zone-a/node-1/result",
		NodeID:    "node-1",
	}
	switch category {
	case CategoryMessage:
		event.Message = &MessageEvent{Kind: "ACTION", MessageID: "identify-1", Command: "identify", Size: 128}
	case CategoryDiscard:
		event.Discard = &DiscardEvent{Reason: "self-originated", MessageID: "identify-1"}
	case CategoryError:
		event.Error = &ErrorEventData{Message: "broker refused connection", Context: "open"}
	}
	return event
}

func TestEventRoundTrip(t *testing.T) {
	want := sampleEvent(CategoryMessage)

	data, err := EncodeEvent(want)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if got.SessionID != want.SessionID || got.Topic != want.Topic {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Message == nil || got.Message.MessageID != "identify-1" {
		t.Errorf("Message payload lost: %+v", got.Message)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.qlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Log(sampleEvent(CategoryMessage))
	logger.Log(sampleEvent(CategoryDiscard))
	logger.Log(sampleEvent(CategoryError))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Close is idempotent and later writes are ignored.
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	logger.Log(sampleEvent(CategoryMessage))

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		count++
	}
	if count != 3 {
		t.Errorf("read %d events, want 3", count)
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.qlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Log(sampleEvent(CategoryMessage))
	logger.Log(sampleEvent(CategoryDiscard))
	logger.Close()

	discard := CategoryDiscard
	reader, err := NewFilteredReader(path, Filter{Category: &discard})
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if event.Category != CategoryDiscard || event.Discard.Reason != "self-originated" {
		t.Errorf("filtered event = %+v, want the discard event", event)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Next after last match = %v, want io.EOF", err)
	}
}

func TestMultiLoggerFansOut(t *testing.T) {
	var first, second []Event
	capture := func(sink *[]Event) Logger {
		return loggerFunc(func(e Event) { *sink = append(*sink, e) })
	}

	multi := NewMultiLogger(capture(&first), capture(&second), NoopLogger{})
	multi.Log(sampleEvent(CategoryMessage))

	if len(first) != 1 || len(second) != 1 {
		t.Errorf("fan-out counts = %d, %d, want 1, 1", len(first), len(second))
	}
}

// loggerFunc adapts a function to the Logger interface for tests.
type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }

func TestZerologAdapterDiscardAtDebug(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.DebugLevel)

	NewZerologAdapter(zl).Log(sampleEvent(CategoryDiscard))

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte(`"level":"debug"`)) {
		t.Errorf("discard event not at debug level: %s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("self-originated")) {
		t.Errorf("discard reason missing: %s", out)
	}
}
