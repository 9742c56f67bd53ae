// Package interactive provides the command loop qtpy-ctl runs once a
// session is open.
package interactive

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/connect"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// serialReadTimeout bounds one console line read.
const serialReadTimeout = 2 * time.Second

// Shell is the interactive loop over one open connection.
type Shell struct {
	conn *connect.Connection
	rl   *readline.Instance
}

// New creates a shell for the connection.
func New(conn *connect.Connection) (*Shell, error) {
	prompt := "serial> "
	if conn.Kind == connect.TransportMQTT {
		prompt = "mqtt> "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{conn: conn, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until quit or EOF.
func (s *Shell) Run() {
	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "help", "?":
			s.printHelp()
		case "quit", "exit", "q":
			return
		default:
			s.dispatch(cmd, parts[1:], input)
		}
	}
}

func (s *Shell) dispatch(cmd string, args []string, raw string) {
	if s.conn.Kind == connect.TransportSerial {
		// Everything that is not a shell command goes to the console.
		s.cmdSerialLine(raw)
		return
	}

	switch cmd {
	case "identify", "i":
		s.printResult(s.conn.Mqtt.Identify())
	case "status", "s":
		s.printResult(s.conn.Mqtt.Status())
	case "restart":
		s.printResult(s.conn.Mqtt.Do(wire.CommandRestart, nil))
	case "send":
		s.cmdSend(args)
	default:
		fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (try help)\n", cmd)
	}
}

// cmdSend issues an arbitrary command: send <command> [key=value ...]
func (s *Shell) cmdSend(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: send <command> [key=value ...]")
		return
	}
	parameters := make(map[string]any)
	for _, arg := range args[1:] {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			fmt.Fprintf(s.rl.Stdout(), "Parameters look like key=value, got %q\n", arg)
			return
		}
		parameters[key] = value
	}
	s.printResult(s.conn.Mqtt.Do(args[0], parameters))
}

func (s *Shell) cmdSerialLine(line string) {
	if err := s.conn.Serial.SendLine(line); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	answer, err := s.conn.Serial.ReadLine(serialReadTimeout)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), answer)
}

// printResult renders an action result's parameters in key order.
func (s *Shell) printResult(result *wire.ActionPayload, err error) {
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}

	keys := make([]string, 0, len(result.Action.Parameters))
	for key := range result.Action.Parameters {
		if key == wire.ParameterComplete {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(s.rl.Stdout(), "%s (%s)\n", result.Action.Command, result.Action.MessageID)
	for _, key := range keys {
		fmt.Fprintf(s.rl.Stdout(), "  %-16s %v\n", key, result.Action.Parameters[key])
	}
}

func (s *Shell) printHelp() {
	out := s.rl.Stdout()
	fmt.Fprintln(out, "Commands:")
	if s.conn.Kind == connect.TransportMQTT {
		fmt.Fprintln(out, "  identify, i               Ask the node to announce itself")
		fmt.Fprintln(out, "  status, s                 Read memory and temperature")
		fmt.Fprintln(out, "  restart                   Restart the node")
		fmt.Fprintln(out, "  send <cmd> [key=value]    Send an arbitrary command")
	} else {
		fmt.Fprintln(out, "  <text>                    Send a line to the node's console")
	}
	fmt.Fprintln(out, "  help, ?                   Show this help")
	fmt.Fprintln(out, "  quit, q                   Close the session")
}

// Close releases the terminal.
func (s *Shell) Close() error {
	return s.rl.Close()
}
