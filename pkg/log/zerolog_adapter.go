package log

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter mirrors protocol events to a zerolog logger, typically
// a console writer during development. Discard events are emitted at
// debug level with their reason; error events at error level.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates an adapter writing to the given logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Log writes the event to the zerolog logger.
func (a *ZerologAdapter) Log(event Event) {
	var entry *zerolog.Event
	switch event.Category {
	case CategoryDiscard:
		entry = a.logger.Debug()
	case CategoryError:
		entry = a.logger.Error()
	default:
		entry = a.logger.Debug()
	}

	entry = entry.
		Str("session_id", event.SessionID).
		Str("direction", event.Direction.String()).
		Str("category", event.Category.String())

	if event.Group != "" {
		entry = entry.Str("group", event.Group)
	}
	if event.Topic != "" {
		entry = entry.Str("topic", event.Topic)
	}
	if event.NodeID != "" {
		entry = entry.Str("node_id", event.NodeID)
	}

	switch {
	case event.Message != nil:
		entry = entry.
			Str("kind", event.Message.Kind).
			Int("size", event.Message.Size)
		if event.Message.MessageID != "" {
			entry = entry.Str("message_id", event.Message.MessageID)
		}
		if event.Message.Command != "" {
			entry = entry.Str("command", event.Message.Command)
		}
	case event.Discard != nil:
		entry = entry.Str("reason", event.Discard.Reason)
		if event.Discard.MessageID != "" {
			entry = entry.Str("message_id", event.Discard.MessageID)
		}
	case event.StateChange != nil:
		entry = entry.
			Str("old_state", event.StateChange.OldState).
			Str("new_state", event.StateChange.NewState)
		if event.StateChange.Reason != "" {
			entry = entry.Str("reason", event.StateChange.Reason)
		}
	case event.Error != nil:
		entry = entry.Str("error", event.Error.Message)
		if event.Error.Context != "" {
			entry = entry.Str("context", event.Error.Context)
		}
	}

	entry.Msg("protocol")
}

// Compile-time interface satisfaction check.
var _ Logger = (*ZerologAdapter)(nil)
