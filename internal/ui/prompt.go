package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrPromptCancelled is returned when input ends before a line is read.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Prompter reads answers from a terminal or any reader.
type Prompter struct {
	in  io.Reader
	out io.Writer
	fd  int
	tty bool
	br  *bufio.Reader
}

// NewPrompter reads from stdin. Secrets are not echoed when stdin is a terminal.
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	return &Prompter{in: os.Stdin, out: os.Stdout, fd: fd, tty: term.IsTerminal(fd)}
}

// NewReaderPrompter reads from r, for pipes and tests.
func NewReaderPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: r, out: w}
}

func (p *Prompter) reader() *bufio.Reader {
	if p.br == nil {
		p.br = bufio.NewReader(p.in)
	}
	return p.br
}

// Line prompts for a visible answer.
func (p *Prompter) Line(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, PromptStyle.Render(prompt)+" ")
	line, err := p.reader().ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", ErrPromptCancelled
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Secret prompts for an answer without echo when attached to a terminal.
func (p *Prompter) Secret(prompt string) (string, error) {
	if !p.tty {
		return p.Line(prompt)
	}
	_, _ = fmt.Fprint(p.out, PromptStyle.Render(prompt)+" ")
	b, err := term.ReadPassword(p.fd)
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", ErrPromptCancelled
	}
	return string(b), nil
}
