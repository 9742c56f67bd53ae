package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/enbility/zeroconf/v3"
)

const (
	// brokerServiceType is the mDNS service type MQTT brokers advertise.
	brokerServiceType = "_mqtt._tcp"

	// brokerDomain is the mDNS browse domain.
	brokerDomain = "local."

	// DefaultBrokerPort is used when an advertisement omits the port.
	DefaultBrokerPort = 1883

	// defaultBrowseWindow bounds FindBroker when the context has no
	// deadline of its own.
	defaultBrowseWindow = 2 * time.Second
)

// Broker is one MQTT broker found on the local network.
type Broker struct {
	// Host is the broker's address, preferring IPv4 over hostname.
	Host string

	// Port is the broker's TCP port.
	Port int

	// Instance is the advertised mDNS instance name.
	Instance string
}

// FindBroker browses the local network for an MQTT broker and returns
// the first one that answers. Used when the config names no broker.
func FindBroker(ctx context.Context) (*Broker, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultBrowseWindow)
		defer cancel()
	}

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Broker, 1)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				broker := brokerFromEntry(entry)
				if broker == nil {
					continue
				}
				select {
				case found <- broker:
				default:
				}
			case <-removed:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, brokerServiceType, brokerDomain, entries, removed)
	}()

	select {
	case broker := <-found:
		return broker, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: browse window closed", ErrNoBroker)
	}
}

func brokerFromEntry(entry *zeroconf.ServiceEntry) *Broker {
	broker := &Broker{
		Port:     entry.Port,
		Instance: entry.Instance,
	}
	if broker.Port == 0 {
		broker.Port = DefaultBrokerPort
	}

	switch {
	case len(entry.AddrIPv4) > 0:
		broker.Host = entry.AddrIPv4[0].String()
	case entry.HostName != "":
		broker.Host = entry.HostName
	default:
		return nil
	}
	return broker
}
