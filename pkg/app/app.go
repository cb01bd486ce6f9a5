package app

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/amirasaad/payconsole/pkg/repository"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/amirasaad/payconsole/pkg/service/admin"
	"github.com/amirasaad/payconsole/pkg/service/audit"
	"github.com/amirasaad/payconsole/pkg/service/merchants"
	"github.com/amirasaad/payconsole/pkg/service/reports"
	"github.com/amirasaad/payconsole/pkg/service/wallet"
)

// Metrics is what the services and the /metrics route need from the
// collectors.
type Metrics interface {
	service.ActionRecorder
	reports.RunObserver
	Handler() http.Handler
}

// Deps contains everything the services are built from.
type Deps struct {
	Client    *apiclient.Client
	Cache     *query.Cache
	EventBus  eventbus.Bus
	Metrics   Metrics
	Schedules repository.ScheduleRepository
	AuditLog  repository.AuditRepository
	Logger    *slog.Logger
	// Closers are released by App.Close, in reverse order.
	Closers []io.Closer
}

type App struct {
	Deps      *Deps
	Config    *config.App
	Admin     *admin.Service
	Merchants *merchants.Service
	Wallet    *wallet.Service
	Reports   *reports.Service
	Audit     *audit.Service
}

func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	a := &App{
		Deps:   deps,
		Config: cfg,
	}

	sd := service.Deps{
		Client: deps.Client,
		Cache:  deps.Cache,
		Bus:    deps.EventBus,
		Logger: deps.Logger,
		Stale:  StaleTimes(cfg.Query),
	}
	var observer reports.RunObserver
	if deps.Metrics != nil {
		sd.Actions = deps.Metrics
		observer = deps.Metrics
	}

	a.Admin = admin.New(sd)
	a.Merchants = merchants.New(sd)
	a.Wallet = wallet.New(sd)
	a.Reports = reports.New(sd, deps.Schedules, observer)
	if deps.AuditLog != nil {
		a.Audit = audit.New(deps.AuditLog, deps.Logger)
	}
	a.setupEventBus()
	return a
}

// StaleTimes maps the QUERY_* settings onto the service stale windows. A
// zero per-resource value falls back to the default window.
func StaleTimes(q *config.Query) service.StaleTimes {
	st := service.DefaultStaleTimes()
	if q == nil {
		return st
	}
	pick := func(v, fallback time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		if q.DefaultStale > 0 {
			return q.DefaultStale
		}
		return fallback
	}
	return service.StaleTimes{
		Dashboard:    pick(q.Dashboard, st.Dashboard),
		Transactions: pick(q.Transactions, st.Transactions),
		Fees:         pick(q.Fees, st.Fees),
		Merchants:    pick(q.Merchants, st.Merchants),
		Wallet:       pick(q.Wallet, st.Wallet),
		Reports:      pick(q.Reports, st.Reports),
	}
}

// Close releases the bus, the cache store and the database.
func (a *App) Close() error {
	var errs []error
	for i := len(a.Deps.Closers) - 1; i >= 0; i-- {
		if err := a.Deps.Closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
