// Command qtpy-log views and analyzes protocol event log files.
//
// Log files are written by qtpy-ctl and qtpy-node-sim with the -log
// flag.
//
// Usage:
//
//	qtpy-log <command> [flags] <file.qlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON lines
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	qtpy-log view session.qlog
//
//	# View only discarded messages
//	qtpy-log view -category discard session.qlog
//
//	# Export to JSONL
//	qtpy-log export -o session.jsonl session.qlog
//
//	# Show statistics
//	qtpy-log stats session.qlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/cmd/qtpy-log/commands"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
)

const usage = `qtpy-log - Protocol Log Analyzer

Usage:
  qtpy-log <command> [flags] <file.qlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON lines
  stats    Show statistics about the log file

Use "qtpy-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `qtpy-log view - View log file in human-readable format

Usage:
  qtpy-log view [flags] <file.qlog>

Flags:
`)
		fs.PrintDefaults()
	}

	direction := fs.String("direction", "", "Filter by direction (in, out, none)")
	category := fs.String("category", "", "Filter by category (message, discard, state, error)")
	sessionID := fs.String("session", "", "Filter by session ID")
	group := fs.String("group", "", "Filter by MQTT group")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter := log.Filter{SessionID: *sessionID, Group: *group}
	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fatal(err)
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `qtpy-log export - Export log file to JSON lines

Usage:
  qtpy-log export [flags] <file.qlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *output); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `qtpy-log stats - Show statistics about the log file

Usage:
  qtpy-log stats <file.qlog>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
