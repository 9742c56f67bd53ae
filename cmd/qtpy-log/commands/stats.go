package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	CommandCounts     map[string]int
	DiscardReasons    map[string]int
	Sessions          map[string]*SessionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Group     string
}

// Collect aggregates every event in the log file.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		CommandCounts:     make(map[string]int),
		DiscardReasons:    make(map[string]int),
		Sessions:          make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.Message != nil && event.Message.Command != "" {
		s.CommandCounts[event.Message.Command]++
	}
	if event.Discard != nil {
		s.DiscardReasons[event.Discard.Reason]++
	}
	if event.Error != nil {
		s.Errors++
	}

	if event.SessionID != "" {
		sess, ok := s.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{FirstSeen: event.Timestamp, Group: event.Group}
			s.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Events:    %d\n", stats.TotalEvents)
	if stats.TotalEvents > 0 {
		duration := stats.TimeRange.End.Sub(stats.TimeRange.Start)
		fmt.Fprintf(w, "Span:      %s (%s to %s)\n",
			duration.Round(time.Millisecond),
			stats.TimeRange.Start.UTC().Format(time.RFC3339),
			stats.TimeRange.End.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Errors:    %d\n", stats.Errors)
	fmt.Fprintf(w, "Sessions:  %d\n", len(stats.Sessions))

	fmt.Fprintln(w, "\nBy category:")
	for _, category := range []log.Category{log.CategoryMessage, log.CategoryDiscard, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[category]; count > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", category, count)
		}
	}

	if len(stats.CommandCounts) > 0 {
		fmt.Fprintln(w, "\nBy command:")
		for _, command := range sortedKeys(stats.CommandCounts) {
			fmt.Fprintf(w, "  %-12s %d\n", command, stats.CommandCounts[command])
		}
	}

	if len(stats.DiscardReasons) > 0 {
		fmt.Fprintln(w, "\nDiscards:")
		for _, reason := range sortedKeys(stats.DiscardReasons) {
			fmt.Fprintf(w, "  %-20s %d\n", reason, stats.DiscardReasons[reason])
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
