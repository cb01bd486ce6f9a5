// Package admin is the platform administration feature: dashboard metrics,
// transaction browsing, fee configuration and merchant review.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/dashboard"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/domain/transaction"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/amirasaad/payconsole/pkg/service"
)

// Service is the admin feature.
type Service struct {
	api  *API
	deps service.Deps
}

// New creates the admin service.
func New(deps service.Deps) *Service {
	return &Service{api: NewAPI(deps.Client), deps: deps.Named("admin")}
}

// dashboard

func (s *Service) PlatformMetrics(ctx context.Context) (dashboard.PlatformMetrics, error) {
	return query.Fetch(ctx, s.deps.Cache, KeyPlatformMetrics, s.deps.Stale.Dashboard, s.api.PlatformMetrics)
}

func (s *Service) HealthMetrics(ctx context.Context) (dashboard.HealthMetrics, error) {
	return query.Fetch(ctx, s.deps.Cache, KeyHealthMetrics, s.deps.Stale.Dashboard, s.api.HealthMetrics)
}

func (s *Service) GatewayPerformance(ctx context.Context) ([]dashboard.GatewayPerformance, error) {
	return query.Fetch(ctx, s.deps.Cache, KeyGatewayPerf, s.deps.Stale.Dashboard, s.api.GatewayPerformance)
}

// Dashboard is the admin overview screen.
type Dashboard struct {
	Platform dashboard.PlatformMetrics      `json:"platform"`
	Health   dashboard.HealthMetrics        `json:"health"`
	Gateways []dashboard.GatewayPerformance `json:"gateways"`
}

// Dashboard loads the three dashboard panels. They are independent: the
// first error is returned after all three were attempted.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var errs []error
	var err error
	if d.Platform, err = s.PlatformMetrics(ctx); err != nil {
		errs = append(errs, err)
	}
	if d.Health, err = s.HealthMetrics(ctx); err != nil {
		errs = append(errs, err)
	}
	if d.Gateways, err = s.GatewayPerformance(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return d, errs[0]
	}
	return d, nil
}

func (s *Service) MerchantUsers(ctx context.Context) ([]merchant.User, error) {
	return query.Fetch(ctx, s.deps.Cache, KeyMerchantUsers, s.deps.Stale.Merchants, s.api.MerchantUsers)
}

// Transactions returns one page of platform transactions.
func (s *Service) Transactions(ctx context.Context, f transaction.Filter) (transaction.Page, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return query.Fetch(ctx, s.deps.Cache, transactionsKey(f), s.deps.Stale.Transactions,
		func(ctx context.Context) (transaction.Page, error) { return s.api.Transactions(ctx, f) })
}

// merchant review

func (s *Service) Merchants(ctx context.Context, f MerchantFilter) ([]merchant.Merchant, error) {
	return query.Fetch(ctx, s.deps.Cache, merchantsKey(f), s.deps.Stale.Merchants,
		func(ctx context.Context) ([]merchant.Merchant, error) { return s.api.Merchants(ctx, f) })
}

func (s *Service) Merchant(ctx context.Context, id string) (merchant.Merchant, error) {
	return query.Fetch(ctx, s.deps.Cache, merchantKey(id), s.deps.Stale.Merchants,
		func(ctx context.Context) (merchant.Merchant, error) { return s.api.Merchant(ctx, id) })
}

func (s *Service) KYBSubmissions(ctx context.Context, status merchant.KYCStatus) ([]merchant.Submission, error) {
	return query.Fetch(ctx, s.deps.Cache, kybSubmissionsKey(status), s.deps.Stale.Merchants,
		func(ctx context.Context) ([]merchant.Submission, error) { return s.api.KYBSubmissions(ctx, status) })
}

// ErrActionNotAvailable is returned when a review action does not apply to
// the merchant's current state.
var ErrActionNotAvailable = fmt.Errorf("%w: action not available for this merchant", domain.ErrValidation)

// Review applies an admin review action to a merchant. The merchant's
// current state is checked first so that, for example, approving KYB for a
// merchant that never submitted is refused without a request.
func (s *Service) Review(ctx context.Context, id string, action merchant.Action, in merchant.ReviewInput) (merchant.Merchant, error) {
	m, err := s.Merchant(ctx, id)
	if err != nil {
		return merchant.Merchant{}, err
	}
	allowed := false
	for _, a := range m.AdminActions() {
		if a == action {
			allowed = true
			break
		}
	}
	if !allowed {
		return merchant.Merchant{}, fmt.Errorf("%w: %s", ErrActionNotAvailable, action)
	}
	if action == merchant.ActionRejectKYB && in.Reason == "" {
		return merchant.Merchant{}, fmt.Errorf("%w: a rejection reason is required", domain.ErrValidation)
	}

	call := map[merchant.Action]func(context.Context, string, merchant.ReviewInput) (merchant.Merchant, error){
		merchant.ActionApproveKYB:        s.api.ApproveKYB,
		merchant.ActionRejectKYB:         s.api.RejectKYB,
		merchant.ActionApproveProduction: s.api.ApproveProduction,
		merchant.ActionSuspendProduction: s.api.SuspendProduction,
	}[action]
	if call == nil {
		return merchant.Merchant{}, errors.New("admin: unknown review action " + string(action))
	}

	return service.Mutate(ctx, s.deps,
		service.Action{Name: "merchant." + string(action), Resource: "merchant", ResourceID: id},
		[]query.Key{KeyMerchants, KeyKYBSubmissions, KeyDashboard, KeyMerchantUsers, KeyMerchantFeature},
		func(ctx context.Context) (merchant.Merchant, error) { return call(ctx, id, in) })
}
