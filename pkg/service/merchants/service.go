// Package merchants is the merchant-facing feature: onboarding, KYB
// documents, production access, allowlists, API keys and the merchant
// dashboard.
package merchants

import (
	"context"
	"fmt"
	"io"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/dashboard"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/amirasaad/payconsole/pkg/ui/confirm"
)

// ErrRegenerateDeclined is returned when the operator declines a key
// regeneration.
var ErrRegenerateDeclined = fmt.Errorf("%w: key regeneration declined", domain.ErrCancelled)

// DefaultRecentLimit is the number of recent transactions on the dashboard.
const DefaultRecentLimit = 10

type Service struct {
	api  *API
	deps service.Deps
}

func New(deps service.Deps) *Service {
	return &Service{api: NewAPI(deps.Client), deps: deps.Named("merchants")}
}

func (s *Service) Create(ctx context.Context, in merchant.CreateInput) (merchant.Merchant, error) {
	if err := in.Validate(); err != nil {
		return merchant.Merchant{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "merchant.create", Resource: "merchant"},
		append(service.CallerKeys(ctx, KeyList, KeyFirst), keyAdminMerchants),
		func(ctx context.Context) (merchant.Merchant, error) { return s.api.Create(ctx, in) })
}

func (s *Service) List(ctx context.Context) ([]merchant.Merchant, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, KeyList), s.deps.Stale.Merchants, s.api.List)
}

// First returns the caller's primary merchant.
func (s *Service) First(ctx context.Context) (merchant.Merchant, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, KeyFirst), s.deps.Stale.Merchants, s.api.First)
}

func (s *Service) Get(ctx context.Context, id string) (merchant.Merchant, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, detailKey(id)), s.deps.Stale.Merchants,
		func(ctx context.Context) (merchant.Merchant, error) { return s.api.Get(ctx, id) })
}

// merchantKeys are invalidated when a merchant's lifecycle state changes.
func merchantKeys(ctx context.Context, id string) []query.Key {
	return append(service.CallerKeys(ctx, detailKey(id), KeyList, KeyFirst), keyAdminMerchants)
}

// KYB

func (s *Service) Documents(ctx context.Context, id string) ([]merchant.Document, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, documentsKey(id)), s.deps.Stale.Merchants,
		func(ctx context.Context) ([]merchant.Document, error) { return s.api.Documents(ctx, id) })
}

func (s *Service) UploadDocument(
	ctx context.Context,
	id string,
	docType merchant.DocumentType,
	filename string,
	content io.Reader,
) (merchant.Document, error) {
	if !docType.Valid() {
		return merchant.Document{}, fmt.Errorf("%w: %q", merchant.ErrInvalidDocumentType, docType)
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "kyb.document.upload", Resource: "merchant", ResourceID: id},
		service.CallerKeys(ctx, kybKey(id)),
		func(ctx context.Context) (merchant.Document, error) {
			return s.api.UploadDocument(ctx, id, docType, filename, content)
		})
}

func (s *Service) DeleteDocument(ctx context.Context, id, docID string) error {
	_, err := service.Mutate(ctx, s.deps,
		service.Action{Name: "kyb.document.delete", Resource: "merchant", ResourceID: id},
		service.CallerKeys(ctx, kybKey(id)),
		func(ctx context.Context) (struct{}, error) { return struct{}{}, s.api.DeleteDocument(ctx, id, docID) })
	return err
}

// SubmitKYB sends the merchant's documents for review. It is refused with
// merchant.ErrNoDocuments, without a submit request, while no document has
// been uploaded.
func (s *Service) SubmitKYB(ctx context.Context, id string) (merchant.KYBStatus, error) {
	docs, err := s.Documents(ctx, id)
	if err != nil {
		return merchant.KYBStatus{}, err
	}
	if err := merchant.CheckSubmit(len(docs)); err != nil {
		return merchant.KYBStatus{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "kyb.submit", Resource: "merchant", ResourceID: id},
		append(merchantKeys(ctx, id), service.CallerKey(ctx, kybKey(id)), keyAdminKYB),
		func(ctx context.Context) (merchant.KYBStatus, error) { return s.api.SubmitKYB(ctx, id) })
}

func (s *Service) KYBStatus(ctx context.Context, id string) (merchant.KYBStatus, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, kybStatusKey(id)), s.deps.Stale.Merchants,
		func(ctx context.Context) (merchant.KYBStatus, error) { return s.api.KYBStatus(ctx, id) })
}

// production access

// RequestProduction asks for production access. The request is only sent
// when KYB is approved and no request is outstanding.
func (s *Service) RequestProduction(ctx context.Context, id string, in merchant.ProductionRequest) (merchant.ProductionStatus, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return merchant.ProductionStatus{}, err
	}
	if !m.CanRequestProduction() {
		return merchant.ProductionStatus{}, fmt.Errorf("%w (kyc %s, production %s)",
			merchant.ErrProductionNotAllowed, m.KYCStatus, m.ProductionState)
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "production.request", Resource: "merchant", ResourceID: id},
		append(merchantKeys(ctx, id), service.CallerKey(ctx, productionKey(id))),
		func(ctx context.Context) (merchant.ProductionStatus, error) {
			return s.api.RequestProduction(ctx, id, in)
		})
}

func (s *Service) ProductionStatus(ctx context.Context, id string) (merchant.ProductionStatus, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, productionKey(id)), s.deps.Stale.Merchants,
		func(ctx context.Context) (merchant.ProductionStatus, error) { return s.api.ProductionStatus(ctx, id) })
}

// allowlists

func (s *Service) Domains(ctx context.Context, id string) ([]merchant.Domain, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, domainsKey(id)), s.deps.Stale.Merchants,
		func(ctx context.Context) ([]merchant.Domain, error) { return s.api.Domains(ctx, id) })
}

func (s *Service) AddDomain(ctx context.Context, id, domain string) (merchant.Domain, error) {
	d, err := merchant.NormalizeDomain(domain)
	if err != nil {
		return merchant.Domain{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "allowlist.domain.add", Resource: "merchant", ResourceID: id},
		service.CallerKeys(ctx, domainsKey(id)),
		func(ctx context.Context) (merchant.Domain, error) { return s.api.AddDomain(ctx, id, d) })
}

func (s *Service) RemoveDomain(ctx context.Context, id, domainID string) error {
	_, err := service.Mutate(ctx, s.deps,
		service.Action{Name: "allowlist.domain.remove", Resource: "merchant", ResourceID: id},
		service.CallerKeys(ctx, domainsKey(id)),
		func(ctx context.Context) (struct{}, error) { return struct{}{}, s.api.RemoveDomain(ctx, id, domainID) })
	return err
}

func (s *Service) IPs(ctx context.Context, id string) ([]merchant.IP, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, ipsKey(id)), s.deps.Stale.Merchants,
		func(ctx context.Context) ([]merchant.IP, error) { return s.api.IPs(ctx, id) })
}

func (s *Service) AddIP(ctx context.Context, id, ip, label string) (merchant.IP, error) {
	normalized, err := merchant.NormalizeIP(ip)
	if err != nil {
		return merchant.IP{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "allowlist.ip.add", Resource: "merchant", ResourceID: id},
		service.CallerKeys(ctx, ipsKey(id)),
		func(ctx context.Context) (merchant.IP, error) { return s.api.AddIP(ctx, id, normalized, label) })
}

func (s *Service) RemoveIP(ctx context.Context, id, ipID string) error {
	_, err := service.Mutate(ctx, s.deps,
		service.Action{Name: "allowlist.ip.remove", Resource: "merchant", ResourceID: id},
		service.CallerKeys(ctx, ipsKey(id)),
		func(ctx context.Context) (struct{}, error) { return struct{}{}, s.api.RemoveIP(ctx, id, ipID) })
	return err
}

// API keys

// RegeneratePrompt warns that the current sandbox key stops working.
func RegeneratePrompt(m merchant.Merchant) confirm.Prompt {
	return confirm.Prompt{
		Title:        "Regenerate sandbox API key",
		Message:      fmt.Sprintf("The current sandbox key of %s will stop working immediately.", m.BusinessName),
		ConfirmLabel: "Regenerate",
	}
}

func (s *Service) RegenerateSandboxKey(ctx context.Context, id string, c confirm.Confirmer) (merchant.APIKeys, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return merchant.APIKeys{}, err
	}
	action := service.Action{Name: "api-key.sandbox.regenerate", Resource: "merchant", ResourceID: id}
	ok, err := c.Confirm(ctx, RegeneratePrompt(m))
	if err != nil {
		return merchant.APIKeys{}, err
	}
	if !ok {
		s.deps.Audit(ctx, action, eventbus.OutcomeDeclined, "")
		return merchant.APIKeys{}, ErrRegenerateDeclined
	}
	return service.Mutate(ctx, s.deps, action,
		service.CallerKeys(ctx, detailKey(id), KeyFirst),
		func(ctx context.Context) (merchant.APIKeys, error) { return s.api.RegenerateSandboxKey(ctx, id) })
}

// dashboard

func (s *Service) Stats(ctx context.Context) (dashboard.MerchantStats, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, KeyStats), s.deps.Stale.Dashboard, s.api.Stats)
}

func (s *Service) RecentTransactions(ctx context.Context, limit int) (dashboard.RecentTransactions, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, recentKey(limit)), s.deps.Stale.Transactions,
		func(ctx context.Context) (dashboard.RecentTransactions, error) {
			return s.api.RecentTransactions(ctx, limit)
		})
}
