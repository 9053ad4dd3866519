package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// isInteractive reports whether stdin and stdout are both terminals.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// requireConfirmation returns nil when the user accepted, or when --yes was
// given. Non-interactive runs without --yes fail instead of blocking.
func requireConfirmation(assumeYes bool, ask func() (bool, error)) error {
	if assumeYes {
		return nil
	}
	if !isInteractive() {
		return &userError{
			msg:  "confirmation required but stdin is not a terminal",
			hint: "Re-run with --yes",
		}
	}
	ok, err := ask()
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}
	return nil
}

var errCancelled = errors.New("cancelled")

// confirmCreate asks a yes/no question with survey.
func confirmCreate(msg string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: msg, Default: false}, &ok)
	if errors.Is(err, terminal.InterruptErr) {
		return false, nil
	}
	return ok, err
}

// confirmTypedName asks the user to type name to confirm a destructive action.
func confirmTypedName(action, name string) (bool, error) {
	prompt := fmt.Sprintf("  %sType %q to %s:%s ", clrRed, name, action, clrReset)
	rl, err := readline.NewEx(&readline.Config{Prompt: prompt})
	if err != nil {
		return false, err
	}
	defer func() { _ = rl.Close() }()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(line) == name, nil
}
