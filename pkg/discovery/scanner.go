package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/identity"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/probe"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/session"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// DefaultWindow is the scan window used when the config gives none.
// Nodes answer an identify broadcast well within half a second on a LAN.
const DefaultWindow = 500 * time.Millisecond

// MessageBus is the slice of a session the MQTT probe needs. Satisfied
// by *session.Session; tests substitute an in-memory fake.
type MessageBus interface {
	Group() string
	NodeID() string
	DescriptorTopic() string
	PublishDescriptor() error
	Subscribe(topic string) error
	Publish(topic string, payload []byte) error
	NextAction(command string, parameters map[string]any) *wire.ActionPayload
	PopMessage(deadline time.Time) (session.Message, bool)
	Requeue(msg session.Message)
	Discard(msg session.Message, reason string)
}

// Result holds a completed scan: the merged device records plus the raw
// per-transport views they were built from.
type Result struct {
	// Records maps serial number to the unified device record.
	Records map[string]identity.DeviceRecord

	// SerialPorts maps port name to the enumerated port details.
	SerialPorts map[string]probe.SerialPortDetails

	// Volumes maps drive root to the enumerated volume details.
	Volumes map[string]probe.VolumeDetails

	// Announcements maps serial number to the MQTT node announcement.
	Announcements map[string]identity.NodeAnnouncement
}

// Scanner runs the three-probe device scan.
type Scanner struct {
	// SerialPorts enumerates USB serial ports.
	SerialPorts probe.SerialPortProber

	// Volumes enumerates removable disk volumes.
	Volumes probe.VolumeProber

	// Correlator merges the probe views into device records.
	Correlator *identity.Correlator

	// AppName, when set, restricts MQTT responders to nodes running the
	// named application. Responders for other applications surface as
	// ErrAppUnsupported rather than an empty scan.
	AppName string

	// Window bounds the MQTT drain (default: DefaultWindow).
	Window time.Duration
}

// NewScanner returns a scanner wired to the host's real probes.
func NewScanner() *Scanner {
	return &Scanner{
		SerialPorts: probe.NewUSBSerialProber(),
		Volumes:     probe.NewGopsutilVolumeProber(),
		Correlator:  identity.NewCorrelator(),
		Window:      DefaultWindow,
	}
}

// Discover runs all probes and correlates their findings.
//
// The serial and volume probes run on their own goroutines; the volume
// probe in particular can block in the OS while a card reader spins up.
// The MQTT probe runs on the calling goroutine when a bus is given and
// is skipped when bus is nil (serial-only scan). A scan that completes
// without finding any device returns the raw views alongside
// ErrDiscoveryEmpty.
func (s *Scanner) Discover(ctx context.Context, bus MessageBus) (*Result, error) {
	result := &Result{}

	type serialOutcome struct {
		ports map[string]probe.SerialPortDetails
		err   error
	}
	type volumeOutcome struct {
		volumes map[string]probe.VolumeDetails
		err     error
	}
	serialCh := make(chan serialOutcome, 1)
	volumeCh := make(chan volumeOutcome, 1)

	go func() {
		ports, err := s.SerialPorts.SerialPorts()
		serialCh <- serialOutcome{ports, err}
	}()
	go func() {
		volumes, err := s.Volumes.DiskVolumes()
		volumeCh <- volumeOutcome{volumes, err}
	}()

	if bus != nil {
		announcements, err := s.scanMQTT(ctx, bus)
		if err != nil {
			return nil, err
		}
		result.Announcements = announcements
	}

	serial := <-serialCh
	if serial.err != nil {
		return nil, fmt.Errorf("serial port probe: %w", serial.err)
	}
	volume := <-volumeCh
	if volume.err != nil {
		return nil, fmt.Errorf("disk volume probe: %w", volume.err)
	}
	result.SerialPorts = serial.ports
	result.Volumes = volume.volumes

	announcements := result.Announcements
	if s.AppName != "" && len(announcements) > 0 {
		announcements = filterByApp(announcements, s.AppName)
		if len(announcements) == 0 {
			return result, fmt.Errorf("%w: %s", ErrAppUnsupported, s.AppName)
		}
	}

	result.Records = s.Correlator.Correlate(result.SerialPorts, result.Volumes, announcements)
	if len(result.Records) == 0 {
		return result, ErrDiscoveryEmpty
	}
	return result, nil
}

// filterByApp keeps announcements whose reported application matches.
// Announcements that omit the application name are kept; older node
// firmware never filled the notice comment.
func filterByApp(announcements map[string]identity.NodeAnnouncement, appName string) map[string]identity.NodeAnnouncement {
	kept := make(map[string]identity.NodeAnnouncement)
	for serial, node := range announcements {
		if node.AppName == "" || node.AppName == appName {
			kept[serial] = node
		}
	}
	return kept
}
