package notify_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/ui/notify"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestErrorText(t *testing.T) {
	const fallback = "Failed to activate fee rule"
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend message", &apiclient.APIError{StatusCode: 409, Message: "Another rule is active"}, "Another rule is active"},
		{"wrapped backend message", fmt.Errorf("activate: %w", &apiclient.APIError{StatusCode: 400, Message: "Bad tuple"}), "Bad tuple"},
		{"backend without message", &apiclient.APIError{StatusCode: 500}, fallback},
		{"transport", fmt.Errorf("%w: dial tcp", apiclient.ErrTransport), fallback},
		{"local check", merchant.ErrNoDocuments, "Upload at least one KYB document before submitting"},
		{"cancelled", domain.ErrCancelled, "Cancelled by operator"},
		{"accented first letter", fmt.Errorf("%w: état du marchand invalide", domain.ErrValidation), "État du marchand invalide"},
		{"error field only", &apiclient.APIError{StatusCode: 400, Reason: "Bad Request"}, fallback},
		{"unknown", errors.New("json: cannot unmarshal"), fallback},
		{"nil", nil, fallback},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, notify.ErrorText(tc.err, fallback))
		})
	}
	assert.Equal(t, notify.DefaultErrorText, notify.ErrorText(nil, ""))
}

func TestRecorder(t *testing.T) {
	var r notify.Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify(context.Background(), notify.Success("Rule activated"))
	r.Notify(context.Background(), notify.FromError(&apiclient.APIError{StatusCode: 400, Message: "nope"}, "x"))
	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, notify.Toast{Level: notify.LevelError, Text: "nope"}, last)
	assert.Len(t, r.Toasts(), 2)
}

func TestConsole(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	c := notify.NewConsole(&buf)
	c.Notify(context.Background(), notify.Success("Version activated"))
	c.Notify(context.Background(), notify.Toast{Level: notify.LevelError, Title: "KYB", Text: "rejected"})
	assert.Equal(t, "✔ Version activated\n✖ KYB: rejected\n", buf.String())
}
