// Package confirm asks the operator to approve destructive or far-reaching
// actions before they are sent.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Prompt is a confirmation dialog.
type Prompt struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirmLabel"`
}

// Confirmer shows a prompt and reports the operator's answer.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Func adapts a function to Confirmer.
type Func func(ctx context.Context, p Prompt) (bool, error)

func (f Func) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// Always accepts every prompt.
var Always Confirmer = Func(func(context.Context, Prompt) (bool, error) { return true, nil })

// Never declines every prompt.
var Never Confirmer = Func(func(context.Context, Prompt) (bool, error) { return false, nil })

// Recorder answers with a fixed value and remembers the prompts it saw.
type Recorder struct {
	Answer  bool
	Prompts []Prompt
}

func (r *Recorder) Confirm(_ context.Context, p Prompt) (bool, error) {
	r.Prompts = append(r.Prompts, p)
	return r.Answer, nil
}

// Terminal asks on a terminal with a y/N question. Input that is not a
// terminal is treated as a refusal unless AssumeYes is set.
type Terminal struct {
	In        *os.File
	Out       io.Writer
	AssumeYes bool

	once  sync.Once
	lines *LineReader
}

func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

func (t *Terminal) Confirm(ctx context.Context, p Prompt) (bool, error) {
	if t.AssumeYes {
		return true, nil
	}
	if !term.IsTerminal(int(t.In.Fd())) {
		_, _ = fmt.Fprintln(t.Out, "confirmation required but input is not a terminal; declining")
		return false, nil
	}
	t.once.Do(func() { t.lines = NewLineReader(t.In) })
	return t.lines.Ask(ctx, t.Out, p)
}

// Ask prints p to out and reads one answer line from in. Callers prompting
// more than once on the same input should keep a LineReader instead.
func Ask(ctx context.Context, in io.Reader, out io.Writer, p Prompt) (bool, error) {
	return NewLineReader(in).Ask(ctx, out, p)
}

// LineReader reads answer lines from an input in the background. Reads
// cannot be interrupted, so a read still pending when a prompt is cancelled
// is kept and its line answers the next prompt. At most one goroutine is
// ever blocked on the input. A LineReader serves one prompt at a time.
type LineReader struct {
	br *bufio.Reader

	mu      sync.Mutex
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func NewLineReader(in io.Reader) *LineReader {
	return &LineReader{br: bufio.NewReader(in)}
}

// ReadLine returns the next line, or ctx's error if it ends first.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	l.mu.Lock()
	if l.pending == nil {
		ch := make(chan lineResult, 1)
		l.pending = ch
		go func() {
			line, err := l.br.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
	}
	ch := l.pending
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		l.mu.Lock()
		l.pending = nil
		l.mu.Unlock()
		if res.err != nil && res.line == "" {
			return "", res.err
		}
		return res.line, nil
	}
}

// Ask prints p to out and waits for a y/N answer.
func (l *LineReader) Ask(ctx context.Context, out io.Writer, p Prompt) (bool, error) {
	label := p.ConfirmLabel
	if label == "" {
		label = "Continue"
	}
	if p.Title != "" {
		_, _ = fmt.Fprintf(out, "%s\n", p.Title)
	}
	_, _ = fmt.Fprintf(out, "%s\n%s? [y/N]: ", p.Message, label)

	line, err := l.ReadLine(ctx)
	switch {
	case errors.Is(err, io.EOF):
		return false, nil
	case err != nil:
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
