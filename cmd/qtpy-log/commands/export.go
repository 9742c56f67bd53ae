package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
)

// RunExport rewrites the log as JSON lines, one event per line, to the
// output path or stdout when the path is empty.
func RunExport(path, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(exportEvent(event)); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
}

// exportEvent flattens an event for JSON output with readable enums.
func exportEvent(event log.Event) map[string]any {
	out := map[string]any{
		"timestamp": event.Timestamp,
		"session":   event.SessionID,
		"direction": event.Direction.String(),
		"category":  event.Category.String(),
	}
	if event.Group != "" {
		out["group"] = event.Group
	}
	if event.Topic != "" {
		out["topic"] = event.Topic
	}
	if event.NodeID != "" {
		out["node"] = event.NodeID
	}
	if event.Message != nil {
		out["message"] = event.Message
	}
	if event.Discard != nil {
		out["discard"] = event.Discard
	}
	if event.StateChange != nil {
		out["state_change"] = event.StateChange
	}
	if event.Error != nil {
		out["error"] = event.Error
	}
	return out
}
