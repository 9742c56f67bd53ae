package node

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/session"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// pollInterval is how long one inbox wait lasts before the run loop
// re-checks its context.
const pollInterval = 200 * time.Millisecond

// Bus is the slice of a session the responder needs. Satisfied by
// *session.Session; tests substitute an in-memory fake.
type Bus interface {
	Group() string
	NodeID() string
	DescriptorTopic() string
	Subscribe(topic string) error
	Publish(topic string, payload []byte) error
	PopMessage(deadline time.Time) (session.Message, bool)
	Requeue(msg session.Message)
	Discard(msg session.Message, reason string)
}

// Config describes the simulated node.
type Config struct {
	// SerialNumber is the node's hardware serial, lower-cased hex.
	SerialNumber string

	// HardwareName is reported in the descriptor.
	HardwareName string

	// AppName and AppVersion describe the sensor application.
	AppName    string
	AppVersion string

	// IPAddress reported in the descriptor. Empty omits it.
	IPAddress string
}

// Handler answers one command. The returned map becomes the result
// parameters; the complete flag is added by the service.
type Handler func(request *wire.ActionPayload) (map[string]any, error)

// Service answers protocol commands on behalf of one node.
type Service struct {
	cfg      Config
	bus      Bus
	handlers map[string]Handler
}

// New creates a responder bound to an open bus. The bus's node ID and
// group define where the service listens and answers.
func New(cfg Config, bus Bus) *Service {
	s := &Service{
		cfg:      cfg,
		bus:      bus,
		handlers: make(map[string]Handler),
	}
	s.handlers[wire.CommandIdentify] = s.handleIdentify
	s.handlers[wire.CommandStatus] = s.handleStatus
	s.handlers[wire.CommandRestart] = s.handleRestart
	return s
}

// Handle registers or replaces the handler for a command.
func (s *Service) Handle(command string, handler Handler) {
	s.handlers[command] = handler
}

// Start subscribes the node's topics and publishes the first
// descriptor announcement.
func (s *Service) Start() error {
	topics := []string{
		wire.BroadcastTopic(s.bus.Group()),
		wire.CommandTopic(s.bus.Group(), s.bus.NodeID()),
	}
	for _, topic := range topics {
		if err := s.bus.Subscribe(topic); err != nil {
			return err
		}
	}
	return s.publishDescriptor()
}

// Run answers commands until the context is canceled. Call Start first.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, ok := s.bus.PopMessage(time.Now().Add(pollInterval))
		if !ok {
			continue
		}
		s.dispatch(msg)
	}
}

// dispatch routes one inbox message. Non-action payloads and other
// nodes' results are requeued; the node's own transmissions are
// dropped.
func (s *Service) dispatch(msg session.Message) {
	if wire.Classify(msg.Payload) != wire.KindAction {
		s.bus.Requeue(msg)
		return
	}
	request, err := wire.DecodeAction(msg.Payload)
	if err != nil {
		s.bus.Discard(msg, "undecodable action")
		return
	}
	if request.IsFrom(s.bus.DescriptorTopic()) {
		s.bus.Discard(msg, "self-originated")
		return
	}
	if request.Action.Complete() {
		// A finished result from some other exchange, not a command.
		s.bus.Requeue(msg)
		return
	}

	handler, known := s.handlers[request.Action.Command]
	if !known {
		s.answer(request, map[string]any{"error": fmt.Sprintf("unknown command %q", request.Action.Command)})
		return
	}
	parameters, err := handler(request)
	if err != nil {
		s.answer(request, map[string]any{"error": err.Error()})
		return
	}
	s.answer(request, parameters)
}

// answer publishes a result carrying the request's message ID so the
// asker's matcher can pair it.
func (s *Service) answer(request *wire.ActionPayload, parameters map[string]any) {
	if parameters == nil {
		parameters = make(map[string]any)
	}
	result := &wire.ActionPayload{
		Action: wire.ActionInformation{
			Command:    request.Action.Command,
			Parameters: parameters,
			MessageID:  request.Action.MessageID,
		},
		Sender: wire.NewSender(s.bus.DescriptorTopic(), session.CurrentStatus()),
	}
	result.Action.SetComplete(true)

	data, err := wire.EncodeAction(result)
	if err != nil {
		return
	}
	_ = s.bus.Publish(wire.ResultTopic(s.bus.Group(), s.bus.NodeID()), data)
}

// descriptor builds the node's announcement payload.
func (s *Service) descriptor() *wire.DescriptorPayload {
	hostname, _ := os.Hostname()
	return &wire.DescriptorPayload{
		Descriptor: wire.DescriptorInformation{
			NodeID:               s.bus.NodeID(),
			SerialNumber:         s.cfg.SerialNumber,
			HardwareName:         s.cfg.HardwareName,
			SystemName:           hostname,
			PythonImplementation: fmt.Sprintf("go-%s", runtime.Version()),
			IPAddress:            s.cfg.IPAddress,
			Notice: wire.NoticeInformation{
				Comment:   s.cfg.AppName,
				Version:   s.cfg.AppVersion,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		},
		Sender: wire.NewSender(s.bus.DescriptorTopic(), session.CurrentStatus()),
	}
}

func (s *Service) publishDescriptor() error {
	data, err := wire.EncodeDescriptor(s.descriptor())
	if err != nil {
		return err
	}
	return s.bus.Publish(s.bus.DescriptorTopic(), data)
}

// handleIdentify re-announces the descriptor and confirms.
func (s *Service) handleIdentify(request *wire.ActionPayload) (map[string]any, error) {
	if err := s.publishDescriptor(); err != nil {
		return nil, err
	}
	return map[string]any{
		"serial_number": s.cfg.SerialNumber,
		"node_id":       s.bus.NodeID(),
	}, nil
}

// handleStatus reports the host's live readings as the node's own.
func (s *Service) handleStatus(request *wire.ActionPayload) (map[string]any, error) {
	status := session.CurrentStatus()
	return map[string]any{
		"used_memory":     status.UsedMemory,
		"free_memory":     status.FreeMemory,
		"cpu_temperature": status.CPUTemperature,
	}, nil
}

// handleRestart acknowledges; a simulated node has nothing to reboot.
func (s *Service) handleRestart(request *wire.ActionPayload) (map[string]any, error) {
	return map[string]any{"restarting": "true"}, nil
}
