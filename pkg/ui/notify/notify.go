// Package notify turns operation outcomes into toasts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/fatih/color"
)

// Level of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toast is a short operator-facing message.
type Toast struct {
	Level Level  `json:"level"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// DefaultErrorText is used when nothing better is known.
const DefaultErrorText = "Something went wrong. Please try again."

func Success(text string) Toast { return Toast{Level: LevelSuccess, Text: text} }

func Info(text string) Toast { return Toast{Level: LevelInfo, Text: text} }

// FromError builds the error toast for err. Backend errors show the
// backend's message or fallback; checks that failed before any request was
// sent show their own text; anything else shows fallback.
func FromError(err error, fallback string) Toast {
	return Toast{Level: LevelError, Text: ErrorText(err, fallback)}
}

// ErrorText implements the text rule of FromError.
func ErrorText(err error, fallback string) string {
	if fallback == "" {
		fallback = DefaultErrorText
	}
	var apiErr *apiclient.APIError
	switch {
	case err == nil:
		return fallback
	case errors.As(err, &apiErr):
		return apiclient.Message(err, fallback)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrCancelled):
		text := err.Error()
		text = strings.TrimPrefix(text, domain.ErrValidation.Error()+": ")
		if text == "" {
			return fallback
		}
		r, size := utf8.DecodeRuneInString(text)
		return string(unicode.ToUpper(r)) + text[size:]
	default:
		return fallback
	}
}

// Notifier displays toasts.
type Notifier interface {
	Notify(ctx context.Context, t Toast)
}

// Recorder keeps toasts in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(_ context.Context, t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns every toast recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

// Console prints coloured toasts to a terminal.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console { return &Console{w: w} }

func (c *Console) Notify(_ context.Context, t Toast) {
	var paint *color.Color
	var mark string
	switch t.Level {
	case LevelSuccess:
		paint, mark = color.New(color.FgGreen, color.Bold), "✔"
	case LevelError:
		paint, mark = color.New(color.FgRed, color.Bold), "✖"
	default:
		paint, mark = color.New(color.FgCyan), "•"
	}
	line := t.Text
	if t.Title != "" {
		line = t.Title + ": " + t.Text
	}
	_, _ = paint.Fprintln(c.w, fmt.Sprintf("%s %s", mark, line))
}

// Discard drops every toast.
type Discard struct{}

func (Discard) Notify(context.Context, Toast) {}
