// Command qtpy-ctl discovers QT Py sensor nodes and opens interactive
// sessions with them.
//
// Usage:
//
//	qtpy-ctl <command> [flags]
//
// Commands:
//
//	discover   Scan all transports and list the devices found
//	connect    Discover, select a device and transport, open a session
//
// Examples:
//
//	# List every reachable device
//	qtpy-ctl discover
//
//	# Connect interactively, choosing device and transport when needed
//	qtpy-ctl connect
//
//	# Connect to the first device without prompting, preferring MQTT
//	qtpy-ctl connect -auto -transport mqtt
//
//	# Skip discovery and open a serial port directly
//	qtpy-ctl connect -port COM7
//
//	# Skip discovery and address a known node over MQTT
//	qtpy-ctl connect -node node-aa00aa00aa00-0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/cmd/qtpy-ctl/interactive"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/config"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/connect"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/discovery"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/identity"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/session"
)

// Exit codes. Scripted callers branch on these, so each failure the
// operator can act on differently gets its own value.
const (
	exitOK = iota
	exitFailure
	exitNoDevices
	exitReservedPort
	exitMalformedPort
	exitBrokerUnreachable
)

const usage = `qtpy-ctl - QT Py sensor node controller

Usage:
  qtpy-ctl <command> [flags]

Commands:
  discover   Scan all transports and list the devices found
  connect    Discover, select a device and transport, open a session

Use "qtpy-ctl <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(exitFailure)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "discover":
		os.Exit(runDiscover(args))
	case "connect":
		os.Exit(runConnect(args))
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(exitFailure)
	}
}

// commonFlags are shared by discover and connect.
type commonFlags struct {
	configPath string
	broker     string
	brokerPort int
	group      string
	timeout    time.Duration
	logFile    string
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVar(&f.configPath, "config", "", "Configuration file path")
	fs.StringVar(&f.broker, "broker", "", "MQTT broker host (default: config, then mDNS)")
	fs.IntVar(&f.brokerPort, "broker-port", 0, "MQTT broker port (default: config)")
	fs.StringVar(&f.group, "group", "", "MQTT group (default: config)")
	fs.DurationVar(&f.timeout, "timeout", 0, "Discovery scan window (default: config)")
	fs.StringVar(&f.logFile, "log", "", "Write a protocol event log to this file")
}

// resolveConfig layers the command-line flags over the loaded config.
func resolveConfig(f *commonFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	if f.broker != "" {
		cfg.Broker = f.broker
	}
	if f.brokerPort != 0 {
		cfg.Port = f.brokerPort
	}
	if f.group != "" {
		cfg.Group = f.group
	}
	if f.timeout != 0 {
		cfg.ScanTimeout = f.timeout
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}
	return cfg, nil
}

// openSession resolves the broker, by mDNS when unset, and connects.
func openSession(ctx context.Context, cfg config.Config, logger log.Logger) (*session.Session, error) {
	host, port := cfg.Broker, cfg.Port
	if host == "" {
		found, err := discovery.FindBroker(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: no broker configured and none advertised", session.ErrBrokerUnreachable)
		}
		host, port = found.Host, found.Port
	}
	return session.Open(ctx, session.Config{
		BrokerHost: host,
		BrokerPort: port,
		Group:      cfg.Group,
		Logger:     logger,
	})
}

func buildLogger(path string) (log.Logger, func(), error) {
	console := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
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

// exitCodeFor maps the error taxonomy to the documented exit codes.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, discovery.ErrDiscoveryEmpty), errors.Is(err, discovery.ErrAppUnsupported):
		return exitNoDevices
	case errors.Is(err, connect.ErrReservedPort):
		return exitReservedPort
	case errors.Is(err, connect.ErrMalformedPort):
		return exitMalformedPort
	case errors.Is(err, session.ErrBrokerUnreachable):
		return exitBrokerUnreachable
	default:
		return exitFailure
	}
}

// remediation returns the hint printed under each failure.
func remediation(err error) string {
	switch {
	case errors.Is(err, discovery.ErrDiscoveryEmpty):
		return "Check that nodes are powered and on the same group, or pass -group."
	case errors.Is(err, discovery.ErrAppUnsupported):
		return "Nodes answered, but none runs the requested application."
	case errors.Is(err, connect.ErrReservedPort):
		return "COM1 belongs to the host; pick the node's data port instead."
	case errors.Is(err, connect.ErrMalformedPort):
		return "Port names look like COM7 or /dev/ttyACM0."
	case errors.Is(err, session.ErrBrokerUnreachable):
		return "Check the broker address or start one; pass -broker to override."
	default:
		return ""
	}
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if hint := remediation(err); hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	return exitCodeFor(err)
}

func runDiscover(args []string) int {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "qtpy-ctl discover - Scan all transports and list the devices found\n\nFlags:\n")
		fs.PrintDefaults()
	}
	var common commonFlags
	addCommonFlags(fs, &common)
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	cfg, err := resolveConfig(&common)
	if err != nil {
		return fail(err)
	}
	logger, closeLogger, err := buildLogger(cfg.LogFile)
	if err != nil {
		return fail(err)
	}
	defer closeLogger()

	ctx := context.Background()
	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	defer sess.Close()

	scanner := discovery.NewScanner()
	scanner.Window = cfg.ScanTimeout
	result, err := scanner.Discover(ctx, sess)
	if err != nil {
		return fail(err)
	}

	printRecords(result.Records)
	return exitOK
}

func printRecords(records map[string]identity.DeviceRecord) {
	serials := make([]string, 0, len(records))
	for serial := range records {
		serials = append(serials, serial)
	}
	sort.Strings(serials)

	fmt.Printf("%-14s %-8s %-6s %-22s %-15s %s\n",
		"SERIAL", "PORT", "DRIVE", "NODE", "ADDRESS", "DESCRIPTION")
	for _, serial := range serials {
		r := records[serial]
		fmt.Printf("%-14s %-8s %-6s %-22s %-15s %s\n",
			r.SerialNumber, dash(r.ComPort), dash(r.DriveRoot),
			dash(r.NodeID), dash(r.IPAddress), r.DeviceDescription)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runConnect(args []string) int {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "qtpy-ctl connect - Discover, select a device and transport, open a session\n\nFlags:\n")
		fs.PrintDefaults()
	}
	var common commonFlags
	addCommonFlags(fs, &common)
	portName := fs.String("port", "", "Serial port to open directly, skipping discovery")
	nodeID := fs.String("node", "", "Node ID to address over MQTT, skipping discovery")
	auto := fs.Bool("auto", false, "Never prompt; take the first device")
	transport := fs.String("transport", "", "Transport preference for dual-mode devices (serial, mqtt)")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	preference := connect.PreferAuto
	switch *transport {
	case "":
	case "serial":
		preference = connect.PreferSerial
	case "mqtt":
		preference = connect.PreferMQTT
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown transport %q (serial, mqtt)\n", *transport)
		return exitFailure
	}

	cfg, err := resolveConfig(&common)
	if err != nil {
		return fail(err)
	}
	logger, closeLogger, err := buildLogger(cfg.LogFile)
	if err != nil {
		return fail(err)
	}
	defer closeLogger()

	// An explicit port needs no broker at all: validate, open, talk.
	if *portName != "" {
		serial, err := connect.OpenSerial(*portName, 0)
		if err != nil {
			return fail(err)
		}
		conn := &connect.Connection{Kind: connect.TransportSerial, Serial: serial}
		defer conn.Close()
		return runShell(conn)
	}

	ctx := context.Background()
	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	defer sess.Close()

	if *nodeID != "" {
		conn := &connect.Connection{
			Kind: connect.TransportMQTT,
			Mqtt: connect.NewMqttTransport(sess, *nodeID, cfg.ActionTimeout),
		}
		defer conn.Close()
		return runShell(conn)
	}

	connector := connect.Connector{
		Scanner:       discovery.NewScanner(),
		Preference:    preference,
		ActionTimeout: cfg.ActionTimeout,
		Logger:        logger,
	}
	connector.Scanner.Window = cfg.ScanTimeout

	if *auto {
		connector.Chooser = connect.FirstChoice{}
	} else {
		chooser, err := connect.NewReadlineChooser()
		if err != nil {
			return fail(err)
		}
		defer chooser.Close()
		connector.Chooser = chooser
	}

	conn, err := connector.Connect(ctx, sess)
	if err != nil {
		return fail(err)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s over %s\n", conn.Record.SerialNumber, conn.Kind)
	return runShell(conn)
}

func runShell(conn *connect.Connection) int {
	shell, err := interactive.New(conn)
	if err != nil {
		return fail(err)
	}
	defer shell.Close()
	shell.Run()
	return exitOK
}
