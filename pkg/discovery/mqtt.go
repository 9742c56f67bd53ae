package discovery

import (
	"context"
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/identity"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/session"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// scanMQTT broadcasts an identify command and collects the descriptors
// that arrive within the scan window.
//
// Order matters: this controller's own descriptor is published first so
// nodes can learn the asker, all subscriptions are established before
// the identify goes out so no answer can race past an unsubscribed
// topic, and the drain always runs the full window so late responders
// are not cut off by an early exit.
//
// Messages that are not descriptors are held back and requeued after
// the window closes. Requeueing inside the drain loop would hand the
// same message straight back to this consumer.
func (s *Scanner) scanMQTT(ctx context.Context, bus MessageBus) (map[string]identity.NodeAnnouncement, error) {
	if err := bus.PublishDescriptor(); err != nil {
		return nil, err
	}

	group := bus.Group()
	broadcast := wire.BroadcastTopic(group)
	topics := []string{
		broadcast,
		wire.CommandTopic(group, bus.NodeID()),
		wire.AllDescriptorsTopic(group),
	}
	for _, topic := range topics {
		if err := bus.Subscribe(topic); err != nil {
			return nil, err
		}
	}

	identify := bus.NextAction(wire.CommandIdentify, nil)
	data, err := wire.EncodeAction(identify)
	if err != nil {
		return nil, err
	}
	if err := bus.Publish(broadcast, data); err != nil {
		return nil, err
	}

	window := s.Window
	if window == 0 {
		window = DefaultWindow
	}
	deadline := time.Now().Add(window)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	announcements := make(map[string]identity.NodeAnnouncement)
	var holdback []session.Message

	for {
		msg, ok := bus.PopMessage(deadline)
		if !ok {
			break
		}

		switch wire.Classify(msg.Payload) {
		case wire.KindDescriptor:
			payload, err := wire.DecodeDescriptor(msg.Payload)
			if err != nil {
				holdback = append(holdback, msg)
				continue
			}
			if payload.Sender.DescriptorTopic == bus.DescriptorTopic() {
				bus.Discard(msg, "self-originated")
				continue
			}
			node := announcementFrom(payload, group)
			if node.SerialNumber != "" {
				announcements[node.SerialNumber] = node
			}

		case wire.KindAction:
			payload, err := wire.DecodeAction(msg.Payload)
			if err == nil && payload.IsFrom(bus.DescriptorTopic()) {
				bus.Discard(msg, "self-originated")
				continue
			}
			holdback = append(holdback, msg)

		default:
			holdback = append(holdback, msg)
		}
	}

	for _, msg := range holdback {
		bus.Requeue(msg)
	}
	return announcements, nil
}

// announcementFrom converts a received descriptor into the correlator's
// announcement form. The group recorded is the one the descriptor was
// observed in, falling back to the scan group when the sender topic does
// not parse.
func announcementFrom(payload *wire.DescriptorPayload, scanGroup string) identity.NodeAnnouncement {
	group := scanGroup
	if parsed, _, err := wire.ParseDescriptorTopic(payload.Sender.DescriptorTopic); err == nil {
		group = parsed
	}
	return identity.NodeAnnouncement{
		SerialNumber:     payload.Descriptor.SerialNumber,
		NodeID:           payload.Descriptor.NodeID,
		IPAddress:        payload.Descriptor.IPAddress,
		HardwareName:     payload.Descriptor.HardwareName,
		SensorAppVersion: payload.Descriptor.Notice.Version,
		AppName:          payload.Descriptor.Notice.Comment,
		GroupID:          group,
	}
}
