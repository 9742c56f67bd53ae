package connect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// ReadlineChooser prompts on the terminal for index selections.
type ReadlineChooser struct {
	rl *readline.Instance
}

// NewReadlineChooser creates a terminal chooser.
func NewReadlineChooser() (*ReadlineChooser, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &ReadlineChooser{rl: rl}, nil
}

// Choose lists the options and reads one number. Enter accepts the
// first option; out-of-range or non-numeric answers re-prompt.
func (c *ReadlineChooser) Choose(prompt string, options []string) (int, error) {
	fmt.Fprintln(c.rl.Stdout(), prompt+":")
	for i, option := range options {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(c.rl.Stdout(), " %s %d) %s\n", marker, i+1, option)
	}

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return 0, err
		}

		answer := strings.TrimSpace(line)
		if answer == "" {
			return 0, nil
		}
		index, err := strconv.Atoi(answer)
		if err != nil || index < 1 || index > len(options) {
			fmt.Fprintf(c.rl.Stdout(), "enter a number between 1 and %d\n", len(options))
			continue
		}
		return index - 1, nil
	}
}

// Close releases the terminal.
func (c *ReadlineChooser) Close() error {
	return c.rl.Close()
}
