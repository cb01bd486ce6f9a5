// Package service holds what the feature services share: their dependencies
// and the mutation pipeline. Each feature lives in its own sub-package:
//   - admin: dashboard, transactions, fee configuration, merchant review
//   - merchants: merchant onboarding, KYB, allowlists, API keys
//   - wallet: balance, topup, withdraw, operations
//   - reports: report generation and schedules
//
// Reads go through the query cache. A mutation calls the backend, and only
// when it succeeds invalidates the affected cache keys and records an
// admin.action event.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/google/uuid"
)

// StaleTimes are the per-resource stale windows of the query cache.
type StaleTimes struct {
	Dashboard    time.Duration
	Transactions time.Duration
	Fees         time.Duration
	Merchants    time.Duration
	Wallet       time.Duration
	Reports      time.Duration
}

// DefaultStaleTimes returns the default windows.
func DefaultStaleTimes() StaleTimes {
	return StaleTimes{
		Dashboard:    30 * time.Second,
		Transactions: 30 * time.Second,
		Fees:         60 * time.Second,
		Merchants:    60 * time.Second,
		Wallet:       30 * time.Second,
		Reports:      60 * time.Second,
	}
}

// ActionRecorder counts operator mutations, typically into metrics.
type ActionRecorder interface {
	AdminAction(action, outcome string)
}

// Deps are the dependencies every feature service needs.
type Deps struct {
	Client *apiclient.Client
	Cache  *query.Cache
	// Bus receives admin.action events; nil disables auditing.
	Bus     eventbus.Bus
	Actions ActionRecorder
	Logger  *slog.Logger
	Stale   StaleTimes
	Now     func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Named returns a copy of d whose logger carries the service name.
func (d Deps) Named(name string) Deps {
	d.Logger = d.logger().With("service", name)
	return d
}

// Action describes a mutation for auditing.
type Action struct {
	Name       string
	Resource   string
	ResourceID string
}

// Mutate runs fn. On success the given prefixes are invalidated and a
// SUCCEEDED audit event is emitted; on failure nothing is invalidated, a
// FAILED event is emitted and the error is returned unchanged.
func Mutate[T any](
	ctx context.Context,
	d Deps,
	action Action,
	invalidate []query.Key,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		d.Audit(ctx, action, eventbus.OutcomeFailed, err.Error())
		return v, err
	}
	if d.Cache != nil {
		d.Cache.Invalidate(ctx, invalidate...)
	}
	d.Audit(ctx, action, eventbus.OutcomeSucceeded, "")
	return v, nil
}

// Audit emits an admin.action event. Emit failures are logged only.
func (d Deps) Audit(ctx context.Context, action Action, outcome eventbus.Outcome, detail string) {
	if d.Actions != nil {
		d.Actions.AdminAction(action.Name, string(outcome))
	}
	logger := d.logger().With("action", action.Name, "resource_id", action.ResourceID, "outcome", outcome)
	if outcome == eventbus.OutcomeFailed {
		logger.Warn("mutation failed", "detail", detail)
	} else {
		logger.Info("mutation finished")
	}
	if d.Bus == nil {
		return
	}
	evt := eventbus.AdminAction{
		ID:         uuid.NewString(),
		Action:     action.Name,
		Resource:   action.Resource,
		ResourceID: action.ResourceID,
		Actor:      ActorFromContext(ctx),
		Outcome:    outcome,
		Detail:     detail,
		At:         d.now().UTC(),
	}
	if err := d.Bus.Emit(ctx, evt); err != nil {
		logger.Warn("failed to emit audit event", "error", err)
	}
}

// CallerKey scopes k to the actor in ctx. Responses that depend on who
// asks are cached under caller keys.
func CallerKey(ctx context.Context, k query.Key) query.Key {
	return k.Scope(ActorFromContext(ctx))
}

// CallerKeys is CallerKey over keys.
func CallerKeys(ctx context.Context, keys ...query.Key) []query.Key {
	out := make([]query.Key, len(keys))
	for i, k := range keys {
		out[i] = CallerKey(ctx, k)
	}
	return out
}

type actorKey struct{}

// WithActor records who is acting, for audit events.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by WithActor.
func ActorFromContext(ctx context.Context) string {
	a, _ := ctx.Value(actorKey{}).(string)
	return a
}
