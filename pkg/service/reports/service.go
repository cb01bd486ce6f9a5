// Package reports generates and downloads backend reports, and runs the
// console's locally stored report schedules.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/report"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/amirasaad/payconsole/pkg/repository"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/google/uuid"
)

// SchedulerActor is the audit actor of scheduled runs.
const SchedulerActor = "scheduler"

var (
	KeyRoot = query.K("reports")
	KeyList = KeyRoot.Append("list")
)

func listKey(f Filter) query.Key {
	return KeyList.
		With("type", f.Type).
		With("status", f.Status).
		With("merchantId", f.MerchantID).
		With("limit", f.Limit)
}

// RunObserver is told about every scheduled run.
type RunObserver interface {
	ScheduledReport(ok bool)
}

type Service struct {
	api       *API
	deps      service.Deps
	schedules repository.ScheduleRepository
	observer  RunObserver
}

// New creates the reports service. schedules may be nil when scheduling is
// not used; observer may be nil.
func New(deps service.Deps, schedules repository.ScheduleRepository, observer RunObserver) *Service {
	return &Service{
		api:       NewAPI(deps.Client),
		deps:      deps.Named("reports"),
		schedules: schedules,
		observer:  observer,
	}
}

func (s *Service) Generate(ctx context.Context, in report.GenerateInput) (report.Report, error) {
	if err := in.Validate(); err != nil {
		return report.Report{}, err
	}
	requestID := uuid.NewString()
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "report.generate", Resource: "report", ResourceID: requestID},
		[]query.Key{KeyList},
		func(ctx context.Context) (report.Report, error) { return s.api.Generate(ctx, in, requestID) })
}

func (s *Service) List(ctx context.Context, f Filter) ([]report.Report, error) {
	return query.Fetch(ctx, s.deps.Cache, listKey(f), s.deps.Stale.Reports,
		func(ctx context.Context) ([]report.Report, error) { return s.api.List(ctx, f) })
}

// Get is not cached: a generating report changes status on its own.
func (s *Service) Get(ctx context.Context, id string) (report.Report, error) {
	return s.api.Get(ctx, id)
}

// Download fetches the file of a READY report. Other states return
// report.ErrNotReady without requesting the file.
func (s *Service) Download(ctx context.Context, id string) (report.File, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return report.File{}, err
	}
	if !r.Ready() {
		return report.File{}, fmt.Errorf("%w (status %s)", report.ErrNotReady, r.Status)
	}
	f, err := s.api.Download(ctx, id)
	if err != nil {
		return report.File{}, err
	}
	name := f.Name
	if name == "" {
		name = r.FileName
	}
	return report.File{Name: name, ContentType: f.ContentType, Data: f.Data}, nil
}

// schedules

var errNoSchedules = errors.New("reports: no schedule repository configured")

func (s *Service) repo() (repository.ScheduleRepository, error) {
	if s.schedules == nil {
		return nil, errNoSchedules
	}
	return s.schedules, nil
}

func (s *Service) Schedules(ctx context.Context) ([]report.Schedule, error) {
	repo, err := s.repo()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

// CreateSchedule stores a new enabled schedule. The first run is StartAt, or
// one period from now when StartAt is zero.
func (s *Service) CreateSchedule(ctx context.Context, in report.ScheduleInput) (report.Schedule, error) {
	repo, err := s.repo()
	if err != nil {
		return report.Schedule{}, err
	}
	if err := in.Validate(); err != nil {
		return report.Schedule{}, err
	}
	now := s.now()
	next := in.StartAt
	if next.IsZero() {
		next, _ = in.Frequency.Next(now)
	}
	sched := report.Schedule{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Type:       in.Type,
		Format:     in.Format,
		Frequency:  in.Frequency,
		MerchantID: in.MerchantID,
		Enabled:    true,
		AnchorDay:  next.UTC().Day(),
		NextRunAt:  next.UTC(),
		CreatedAt:  now,
	}
	if err := repo.Create(ctx, sched); err != nil {
		return report.Schedule{}, err
	}
	s.deps.Audit(ctx, service.Action{Name: "report-schedule.create", Resource: "report-schedule", ResourceID: sched.ID},
		eventbus.OutcomeSucceeded, "")
	return sched, nil
}

func (s *Service) SetScheduleEnabled(ctx context.Context, id string, enabled bool) (report.Schedule, error) {
	repo, err := s.repo()
	if err != nil {
		return report.Schedule{}, err
	}
	if err := repo.SetEnabled(ctx, id, enabled); err != nil {
		return report.Schedule{}, err
	}
	return repo.Get(ctx, id)
}

func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	repo, err := s.repo()
	if err != nil {
		return err
	}
	return repo.Delete(ctx, id)
}

// RunResult summarizes a RunDue pass.
type RunResult struct {
	Ran    int
	Failed int
}

// RunDue generates a report for every enabled schedule due at now. Each
// schedule's NextRunAt moves forward by its frequency until it is after now,
// so runs missed while the console was down are skipped rather than
// replayed. A schedule is claimed before it runs; one claimed by another
// instance, or disabled since it was listed, is skipped. A failed generation
// is recorded on the schedule and does not stop the others.
func (s *Service) RunDue(ctx context.Context, now time.Time) (RunResult, error) {
	var res RunResult
	repo, err := s.repo()
	if err != nil {
		return res, err
	}
	due, err := repo.Due(ctx, now)
	if err != nil {
		return res, fmt.Errorf("list due schedules: %w", err)
	}
	ctx = service.WithActor(ctx, SchedulerActor)
	for _, sched := range due {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		next, freqErr := advance(sched, now)
		if freqErr != nil {
			// an unknown frequency never becomes valid; stop retrying it
			res.Failed++
			s.deps.Logger.Warn("disabling schedule", "schedule", sched.ID, "error", freqErr)
			if err := repo.SetEnabled(ctx, sched.ID, false); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return res, fmt.Errorf("disable schedule %s: %w", sched.ID, err)
			}
			if err := repo.RecordRun(ctx, sched.ID, now, freqErr.Error()); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return res, fmt.Errorf("record schedule %s: %w", sched.ID, err)
			}
			continue
		}
		claimed, err := repo.Claim(ctx, sched.ID, sched.NextRunAt, next)
		if err != nil {
			return res, fmt.Errorf("claim schedule %s: %w", sched.ID, err)
		}
		if !claimed {
			s.deps.Logger.Debug("schedule already claimed", "schedule", sched.ID)
			continue
		}

		from, to := sched.Frequency.Window(now)
		_, genErr := s.Generate(ctx, report.GenerateInput{
			Type:       sched.Type,
			Format:     sched.Format,
			From:       from,
			To:         to,
			MerchantID: sched.MerchantID,
		})
		res.Ran++
		lastError := ""
		if genErr != nil {
			res.Failed++
			lastError = genErr.Error()
			s.deps.Logger.Warn("scheduled report failed", "schedule", sched.ID, "error", genErr)
		}
		if s.observer != nil {
			s.observer.ScheduledReport(genErr == nil)
		}
		// a schedule deleted while it ran has nothing left to record on
		if err := repo.RecordRun(ctx, sched.ID, now, lastError); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return res, fmt.Errorf("record schedule %s: %w", sched.ID, err)
		}
	}
	return res, nil
}

func advance(sched report.Schedule, now time.Time) (time.Time, error) {
	next := sched.NextRunAt
	for !next.After(now) {
		var err error
		if next, err = sched.Frequency.NextOn(next, sched.AnchorDay); err != nil {
			return time.Time{}, err
		}
	}
	return next, nil
}

func (s *Service) now() time.Time {
	if s.deps.Now != nil {
		return s.deps.Now().UTC()
	}
	return time.Now().UTC()
}
