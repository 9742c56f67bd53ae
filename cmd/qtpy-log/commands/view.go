// Package commands implements the qtpy-log CLI commands.
package commands

import (
	"fmt"
	"io"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
)

// RunView prints the filtered events in human-readable form.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
	return nil
}

// formatEvent writes one event as a header line plus detail lines.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [session:%s] %-3s %-7s %s\n",
		ts, shortenID(event.SessionID), event.Direction, event.Category, event.Topic)

	switch {
	case event.Message != nil:
		m := event.Message
		fmt.Fprintf(w, "  %s", m.Kind)
		if m.Command != "" {
			fmt.Fprintf(w, " command=%s", m.Command)
		}
		if m.MessageID != "" {
			fmt.Fprintf(w, " id=%s", m.MessageID)
		}
		fmt.Fprintf(w, " size=%d\n", m.Size)
	case event.Discard != nil:
		fmt.Fprintf(w, "  dropped: %s", event.Discard.Reason)
		if event.Discard.MessageID != "" {
			fmt.Fprintf(w, " id=%s", event.Discard.MessageID)
		}
		fmt.Fprintln(w)
	case event.StateChange != nil:
		sc := event.StateChange
		fmt.Fprintf(w, "  %s -> %s", sc.OldState, sc.NewState)
		if sc.Reason != "" {
			fmt.Fprintf(w, " (%s)", sc.Reason)
		}
		fmt.Fprintln(w)
	case event.Error != nil:
		fmt.Fprintf(w, "  error: %s", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, " (%s)", event.Error.Context)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// ParseDirectionFlag converts a -direction value.
func ParseDirectionFlag(value string) (log.Direction, error) {
	switch value {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	case "none":
		return log.DirectionNone, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (in, out, none)", value)
	}
}

// ParseCategoryFlag converts a -category value.
func ParseCategoryFlag(value string) (log.Category, error) {
	switch value {
	case "message":
		return log.CategoryMessage, nil
	case "discard":
		return log.CategoryDiscard, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (message, discard, state, error)", value)
	}
}
