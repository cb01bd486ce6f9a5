package app_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/amirasaad/payconsole/infra/repository/audit"
	"github.com/amirasaad/payconsole/pkg/app"
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/repository"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/amirasaad/payconsole/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleTimes(t *testing.T) {
	assert.Equal(t, service.DefaultStaleTimes(), app.StaleTimes(nil))

	st := app.StaleTimes(&config.Query{DefaultStale: 45 * time.Second, Fees: 5 * time.Minute})
	assert.Equal(t, 5*time.Minute, st.Fees)
	assert.Equal(t, 45*time.Second, st.Dashboard)
	assert.Equal(t, 45*time.Second, st.Reports)

	st = app.StaleTimes(&config.Query{})
	assert.Equal(t, service.DefaultStaleTimes(), st)
}

func TestNew_RegistersAuditOnBus(t *testing.T) {
	backend := testutils.NewBackend(t)
	sd, bus := testutils.Deps(t, backend.URL)
	a := app.New(&app.Deps{
		Client:   sd.Client,
		Cache:    sd.Cache,
		EventBus: bus,
		AuditLog: audit.NewMemory(),
	}, &config.App{})

	require.NotNil(t, a.Audit)
	err := bus.Emit(context.Background(), eventbus.AdminAction{
		ID:      "a-1",
		Action:  "merchant.suspend",
		Actor:   "ops@example.com",
		Outcome: eventbus.OutcomeSucceeded,
		At:      time.Now(),
	})
	require.NoError(t, err)

	entries, err := a.Audit.List(context.Background(), repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "merchant.suspend", entries[0].Action)
}

type closer struct {
	name  string
	order *[]string
	err   error
}

func (c closer) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestClose_ReverseOrderJoinsErrors(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	a := &app.App{Deps: &app.Deps{Closers: []io.Closer{
		closer{name: "bus", order: &order},
		closer{name: "store", order: &order, err: boom},
		closer{name: "db", order: &order},
	}}}

	err := a.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"db", "store", "bus"}, order)
}
