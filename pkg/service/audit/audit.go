// Package audit persists admin.action events and lists them back.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/repository"
)

type Service struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

func New(repo repository.AuditRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger.With("service", "audit")}
}

// Register stores every admin.action published on bus.
func (s *Service) Register(bus eventbus.Bus) {
	bus.Register(eventbus.AdminActionType, s.Handle)
}

// Handle accepts AdminAction by value or pointer.
func (s *Service) Handle(ctx context.Context, e eventbus.Event) error {
	var a eventbus.AdminAction
	switch evt := e.(type) {
	case eventbus.AdminAction:
		a = evt
	case *eventbus.AdminAction:
		a = *evt
	default:
		return fmt.Errorf("audit: unexpected event %T", e)
	}
	if err := s.repo.Append(ctx, a); err != nil {
		s.logger.Error("failed to store audit entry", "id", a.ID, "action", a.Action, "error", err)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, f repository.AuditFilter) ([]eventbus.AdminAction, error) {
	return s.repo.List(ctx, f)
}
