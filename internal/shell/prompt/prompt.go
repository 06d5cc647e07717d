// Package prompt abstracts operator input so the configurator can run against
// a terminal or against canned answers in tests.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrInputClosed is returned when input ends before an answer is read.
var ErrInputClosed = errors.New("operator input closed")

// Prompter asks the operator questions.
type Prompter interface {
	// AskLine prints prompt and returns one trimmed line.
	AskLine(prompt string) (string, error)

	// AskSecret is AskLine without echo when the input is a terminal.
	AskSecret(prompt string) (string, error)

	// AskYesNo returns def on an empty answer.
	AskYesNo(prompt string, def bool) (bool, error)
}

// =============================================================================
// Terminal Prompter
// =============================================================================

// Terminal reads answers from an input stream, normally stdin.
type Terminal struct {
	in     *bufio.Reader
	fd     int
	isTerm bool
	out    io.Writer
}

// NewTerminal creates a prompter over in. Secrets are read without echo when
// in is an *os.File attached to a terminal.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{in: bufio.NewReader(in), fd: -1, out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.fd = int(f.Fd())
		t.isTerm = true
	}
	return t
}

func (t *Terminal) AskLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	return t.readLine()
}

func (t *Terminal) AskSecret(prompt string) (string, error) {
	if !t.isTerm {
		return t.AskLine(prompt)
	}
	fmt.Fprint(t.out, prompt)
	b, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInputClosed, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (t *Terminal) AskYesNo(prompt string, def bool) (bool, error) {
	hint := " [y/N]: "
	if def {
		hint = " [Y/n]: "
	}
	for {
		answer, err := t.AskLine(prompt + hint)
		if err != nil {
			return false, err
		}
		if v, ok := parseYesNo(answer, def); ok {
			return v, nil
		}
		fmt.Fprintln(t.out, "Please answer y or n.")
	}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", fmt.Errorf("%w: %v", ErrInputClosed, err)
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// Scripted Prompter
// =============================================================================

// Scripted answers from a fixed queue. It records every prompt it was asked
// and returns ErrInputClosed once the queue is exhausted.
type Scripted struct {
	answers []string
	Asked   []string
}

// NewScripted creates a prompter that replays answers in order.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

// Remaining returns the number of unused answers.
func (s *Scripted) Remaining() int {
	return len(s.answers)
}

func (s *Scripted) AskLine(prompt string) (string, error) {
	s.Asked = append(s.Asked, prompt)
	if len(s.answers) == 0 {
		return "", ErrInputClosed
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return strings.TrimSpace(answer), nil
}

func (s *Scripted) AskSecret(prompt string) (string, error) {
	return s.AskLine(prompt)
}

func (s *Scripted) AskYesNo(prompt string, def bool) (bool, error) {
	for {
		answer, err := s.AskLine(prompt)
		if err != nil {
			return false, err
		}
		if v, ok := parseYesNo(answer, def); ok {
			return v, nil
		}
	}
}

// parseYesNo understands y/yes/n/no in any case; empty means def.
func parseYesNo(answer string, def bool) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return def, true
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}
