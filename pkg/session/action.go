package session

import (
	"fmt"
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// Discard reasons logged by the matching loop.
const (
	discardSelfOriginated = "self-originated"
)

// SendAction publishes a single addressed command to a node and returns
// the sent payload so the caller can match the result. The node's result
// topic is subscribed before publishing so the response cannot be missed.
func (s *Session) SendAction(nodeID, command string, parameters map[string]any) (*wire.ActionPayload, error) {
	if err := s.Subscribe(wire.ResultTopic(s.cfg.Group, nodeID)); err != nil {
		return nil, err
	}

	action := s.NextAction(command, parameters)
	data, err := wire.EncodeAction(action)
	if err != nil {
		return nil, err
	}
	if err := s.Publish(wire.CommandTopic(s.cfg.Group, nodeID), data); err != nil {
		return nil, err
	}
	return action, nil
}

// MatchResult drains the shared inbox until a result matching the sent
// action arrives or the budget expires.
//
// A match is an ActionPayload with the same message ID whose sender is
// not this session (the self-filter; message IDs are only unique per
// session). Self-originated messages are dropped with a logged reason.
// Everything else is requeued so concurrent listeners still observe it.
// Expiry is bounded by the budget plus small scheduling overhead.
func (s *Session) MatchResult(sent *wire.ActionPayload, budget time.Duration) (*wire.ActionPayload, Message, error) {
	deadline := time.Now().Add(budget)

	for {
		msg, ok := s.PopMessage(deadline)
		if !ok {
			return nil, Message{}, fmt.Errorf("%w: %s after %s", ErrActionTimeout, sent.Action.MessageID, budget)
		}

		if wire.Classify(msg.Payload) != wire.KindAction {
			s.Requeue(msg)
			s.yieldAfterRequeue()
			continue
		}

		result, err := wire.DecodeAction(msg.Payload)
		if err != nil {
			s.Requeue(msg)
			s.yieldAfterRequeue()
			continue
		}

		if result.IsFrom(s.descriptorTopic) {
			s.Discard(msg, discardSelfOriginated)
			continue
		}

		if result.Action.MessageID == sent.Action.MessageID {
			return result, msg, nil
		}

		s.Requeue(msg)
		s.yieldAfterRequeue()
	}
}

// yieldAfterRequeue briefly pauses the drain loop so a requeued message
// is not immediately re-popped by the same consumer in a tight spin.
func (s *Session) yieldAfterRequeue() {
	time.Sleep(5 * time.Millisecond)
}
