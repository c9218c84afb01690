package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads answers line by line.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer. ok is false once
// the input is exhausted.
func (p *Prompter) Ask(question string) (answer string, ok bool) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// Credentials asks for an email and a password.
func (p *Prompter) Credentials() (email, password string, ok bool) {
	if email, ok = p.Ask("Email: "); !ok {
		return "", "", false
	}
	if password, ok = p.Ask("Password: "); !ok {
		return "", "", false
	}
	return email, password, true
}
