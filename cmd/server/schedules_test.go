package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/payconsole/pkg/service/reports"
	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunDue(context.Context, time.Time) (reports.RunResult, error) {
	r.calls.Add(1)
	return reports.RunResult{Ran: 1}, r.err
}

func TestRunSchedules_TicksUntilCancelled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, runErr := range []error{nil, errors.New("backend down")} {
		r := &countingRunner{err: runErr}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			runSchedules(ctx, r, 5*time.Millisecond, time.Now, logger)
			close(done)
		}()

		assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("runSchedules did not stop after cancel")
		}
	}
}
