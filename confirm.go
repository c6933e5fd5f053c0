package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirmer asks the operator a yes/no question. Cancelling ctx while the
// question is pending returns an error wrapping ErrAborted.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// PromptConfirmer reads the answer from a line-oriented input
type PromptConfirmer struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPromptConfirmer prompts on out and reads answers from in
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{reader: bufio.NewReader(in), out: out}
}

// NewTerminalConfirmer prompts on stderr, refusing to guess when stdin is not a terminal
func NewTerminalConfirmer() (Confirmer, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("no terminal available for the confirmation prompt (use --yes)")
	}
	return NewPromptConfirmer(os.Stdin, os.Stderr), nil
}

// Confirm asks until the answer is yes or no; an empty answer means no.
// A read left pending by cancellation keeps the reader, so a cancelled
// PromptConfirmer must not be reused.
func (p *PromptConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s [y/N]: ", question)
		input, err := p.readLine(ctx)
		if ctx.Err() != nil {
			fmt.Fprintln(p.out)
			return false, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		}
		if err != nil && (err != io.EOF || input == "") {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		default:
			if err == io.EOF {
				return false, nil
			}
			fmt.Fprintln(p.out, "Please enter y or n.")
		}
	}
}

func (p *PromptConfirmer) readLine(ctx context.Context) (string, error) {
	type line struct {
		text string
		err  error
	}
	lines := make(chan line, 1)
	go func() {
		text, err := p.reader.ReadString('\n')
		lines <- line{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-lines:
		return l.text, l.err
	}
}

// autoConfirmer answers yes without asking (--yes)
type autoConfirmer struct{}

func (autoConfirmer) Confirm(context.Context, string) (bool, error) { return true, nil }
