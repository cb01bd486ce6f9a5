// Package wallet is the merchant wallet feature.
package wallet

import (
	"context"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	walletdomain "github.com/amirasaad/payconsole/pkg/domain/wallet"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/google/uuid"
)

// Cache keys of the wallet feature.
var (
	KeyRoot       = query.K("wallet")
	KeyBalance    = KeyRoot.Append("balance")
	KeyOperations = KeyRoot.Append("operations")

	// merchant dashboard stats include the wallet balance
	keyMerchantDashboard = query.K("merchants", "dashboard")
)

type API struct {
	c *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API { return &API{c: c} }

func (a *API) Balance(ctx context.Context) (walletdomain.Balance, error) {
	var out walletdomain.Balance
	err := a.c.Get(ctx, "/merchant/v1/wallet", nil, &out)
	return out, err
}

func (a *API) Topup(ctx context.Context, in walletdomain.MovementInput, idempotencyKey string) (walletdomain.Operation, error) {
	var out walletdomain.Operation
	err := a.c.Post(ctx, "/merchant/v1/wallet/topup", in, &out, apiclient.IdempotencyKey(idempotencyKey))
	return out, err
}

func (a *API) Withdraw(ctx context.Context, in walletdomain.MovementInput, idempotencyKey string) (walletdomain.Operation, error) {
	var out walletdomain.Operation
	err := a.c.Post(ctx, "/merchant/v1/wallet/withdraw", in, &out, apiclient.IdempotencyKey(idempotencyKey))
	return out, err
}

func (a *API) Operations(ctx context.Context, f walletdomain.OperationFilter) (walletdomain.OperationPage, error) {
	var out walletdomain.OperationPage
	err := a.c.Get(ctx, "/merchant/v1/wallet/operations", f.Values(), &out)
	return out, err
}

type Service struct {
	api  *API
	deps service.Deps
}

func New(deps service.Deps) *Service {
	return &Service{api: NewAPI(deps.Client), deps: deps.Named("wallet")}
}

func (s *Service) Balance(ctx context.Context) (walletdomain.Balance, error) {
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, KeyBalance), s.deps.Stale.Wallet, s.api.Balance)
}

func (s *Service) Operations(ctx context.Context, f walletdomain.OperationFilter) (walletdomain.OperationPage, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	key := KeyOperations.With("limit", f.Limit).With("offset", f.Offset).With("type", f.Type)
	return query.Fetch(ctx, s.deps.Cache, service.CallerKey(ctx, key), s.deps.Stale.Wallet,
		func(ctx context.Context) (walletdomain.OperationPage, error) { return s.api.Operations(ctx, f) })
}

// Topup credits the wallet. An empty idempotencyKey gets a fresh UUID; pass
// the same key to retry a request safely.
func (s *Service) Topup(ctx context.Context, in walletdomain.MovementInput, idempotencyKey string) (walletdomain.Operation, error) {
	return s.move(ctx, "wallet.topup", in, idempotencyKey, s.api.Topup)
}

// Withdraw debits the wallet. See Topup for idempotencyKey.
func (s *Service) Withdraw(ctx context.Context, in walletdomain.MovementInput, idempotencyKey string) (walletdomain.Operation, error) {
	return s.move(ctx, "wallet.withdraw", in, idempotencyKey, s.api.Withdraw)
}

func (s *Service) move(
	ctx context.Context,
	name string,
	in walletdomain.MovementInput,
	idempotencyKey string,
	call func(context.Context, walletdomain.MovementInput, string) (walletdomain.Operation, error),
) (walletdomain.Operation, error) {
	if err := in.Validate(); err != nil {
		return walletdomain.Operation{}, err
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: name, Resource: "wallet", ResourceID: idempotencyKey},
		service.CallerKeys(ctx, KeyRoot, keyMerchantDashboard),
		func(ctx context.Context) (walletdomain.Operation, error) { return call(ctx, in, idempotencyKey) })
}
