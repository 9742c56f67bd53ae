package wire

import (
	"fmt"
	"sync"
)

// MessageIDSource issues per-command message IDs of the form
// "{command}-{N}", where N starts at 1 and increases strictly for each
// command name. IDs are unique within one session, not across sessions,
// so response matching must also check the sender's descriptor topic.
type MessageIDSource struct {
	mu     sync.Mutex
	counts map[string]uint64
}

// NewMessageIDSource creates an empty message ID source.
func NewMessageIDSource() *MessageIDSource {
	return &MessageIDSource{counts: make(map[string]uint64)}
}

// Next returns the next message ID for the given command name.
// Safe for concurrent use.
func (s *MessageIDSource) Next(command string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[command]++
	return fmt.Sprintf("%s-%d", command, s.counts[command])
}
