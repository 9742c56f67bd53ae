// Command qtpy-node-sim simulates one QT Py sensor node on the MQTT
// side of the protocol.
//
// The simulator announces a descriptor, then answers identify, status,
// and restart commands the way the CircuitPython firmware does. Useful
// for exercising qtpy-ctl without hardware on the bench.
//
// Usage:
//
//	qtpy-node-sim -serial aa00aa00aa00 [flags]
//
// Flags:
//
//	-serial string   Hardware serial number (required)
//	-broker string   MQTT broker host (default: find via mDNS)
//	-port int        MQTT broker port (default 1883)
//	-group string    MQTT group (default "centrifuge")
//	-app string      Application name to report (default "sensor-app")
//	-version string  Application version to report (default "0.0.0")
//	-log string      Write a protocol event log to this file
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/config"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/discovery"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/node"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/session"
)

func main() {
	serial := flag.String("serial", "", "Hardware serial number (required)")
	broker := flag.String("broker", "", "MQTT broker host (default: find via mDNS)")
	port := flag.Int("port", 1883, "MQTT broker port")
	group := flag.String("group", config.Default().Group, "MQTT group")
	appName := flag.String("app", "sensor-app", "Application name to report")
	appVersion := flag.String("version", "0.0.0", "Application version to report")
	logFile := flag.String("log", "", "Write a protocol event log to this file")
	flag.Parse()

	if *serial == "" {
		fmt.Fprintln(os.Stderr, "Error: -serial is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*serial, *broker, *port, *group, *appName, *appVersion, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serial, broker string, port int, group, appName, appVersion, logFile string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	console := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	logger, closeLogger, err := buildLogger(console, logFile)
	if err != nil {
		return err
	}
	defer closeLogger()

	if broker == "" {
		found, err := discovery.FindBroker(ctx)
		if err != nil {
			return err
		}
		broker = found.Host
		port = found.Port
		console.Info().Str("host", broker).Int("port", port).Msg("found broker via mDNS")
	}

	sess, err := session.Open(ctx, session.Config{
		BrokerHost: broker,
		BrokerPort: port,
		Group:      group,
		NodeID:     fmt.Sprintf("node-%s-0", serial),
		AppName:    appName,
		AppVersion: appVersion,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	svc := node.New(node.Config{
		SerialNumber: serial,
		HardwareName: "Simulated QT Py ESP32-S3",
		AppName:      appName,
		AppVersion:   appVersion,
	}, sess)
	if err := svc.Start(); err != nil {
		return err
	}
	console.Info().Str("node", sess.NodeID()).Str("group", group).Msg("node online")

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildLogger combines the console adapter with an optional CBOR file
// log.
func buildLogger(console zerolog.Logger, path string) (log.Logger, func(), error) {
	adapter := log.NewZerologAdapter(console)
	if path == "" {
		return adapter, func() {}, nil
	}
	file, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, err
	}
	return log.NewMultiLogger(file, adapter), func() { file.Close() }, nil
}
