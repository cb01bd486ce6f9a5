package wallet_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/amirasaad/payconsole/pkg/domain"
	walletdomain "github.com/amirasaad/payconsole/pkg/domain/wallet"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/amirasaad/payconsole/pkg/service/merchants"
	"github.com/amirasaad/payconsole/pkg/service/wallet"
	"github.com/amirasaad/payconsole/pkg/testutils"
	"github.com/amirasaad/payconsole/pkg/ui/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	routeBalance  = "GET /merchant/v1/wallet"
	routeTopup    = "POST /merchant/v1/wallet/topup"
	routeWithdraw = "POST /merchant/v1/wallet/withdraw"
	routeStats    = "GET /merchant/v1/dashboard/stats"
)

func TestTopup_SendsIdempotencyKeyAndRefreshes(t *testing.T) {
	b := testutils.NewBackend(t)
	deps, _ := testutils.Deps(t, b.URL)
	svc := wallet.New(deps)
	b.Handle(routeBalance, http.StatusOK, walletdomain.Balance{Currency: "XAF", Available: decimal.NewFromInt(1000)})
	b.Handle(routeTopup, http.StatusOK, walletdomain.Operation{ID: "op1", Type: walletdomain.OpTopup})
	ctx := context.Background()

	_, err := svc.Balance(ctx)
	require.NoError(t, err)
	_, err = svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count(routeBalance))

	op, err := svc.Topup(ctx, walletdomain.MovementInput{Amount: decimal.NewFromInt(500), Currency: "XAF"}, "")
	require.NoError(t, err)
	assert.Equal(t, "op1", op.ID)

	key := b.LastRequest(routeTopup).Header.Get("Idempotency-Key")
	_, err = uuid.Parse(key)
	assert.NoError(t, err, "idempotency key should be a UUID, got %q", key)
	assert.JSONEq(t, `{"amount":"500","currency":"XAF"}`, string(b.LastBody(routeTopup)))

	_, err = svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count(routeBalance))
}

func TestBalance_CachedPerCaller(t *testing.T) {
	b := testutils.NewBackend(t)
	deps, _ := testutils.Deps(t, b.URL)
	svc := wallet.New(deps)
	b.Handle(routeBalance, http.StatusOK, walletdomain.Balance{Currency: "XAF", Available: decimal.NewFromInt(1000)})
	b.Handle(routeTopup, http.StatusOK, walletdomain.Operation{ID: "op1"})
	alice := service.WithActor(context.Background(), "alice")
	bob := service.WithActor(context.Background(), "bob")

	_, err := svc.Balance(alice)
	require.NoError(t, err)
	_, err = svc.Balance(bob)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count(routeBalance))

	// alice's topup leaves bob's entry alone
	_, err = svc.Topup(alice, walletdomain.MovementInput{Amount: decimal.NewFromInt(5), Currency: "XAF"}, "")
	require.NoError(t, err)
	_, err = svc.Balance(bob)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count(routeBalance))
	_, err = svc.Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Count(routeBalance))
}

func TestWithdraw_KeepsGivenKey(t *testing.T) {
	b := testutils.NewBackend(t)
	deps, _ := testutils.Deps(t, b.URL)
	svc := wallet.New(deps)
	b.Handle(routeWithdraw, http.StatusOK, walletdomain.Operation{ID: "op2"})

	_, err := svc.Withdraw(context.Background(), walletdomain.MovementInput{Amount: decimal.NewFromInt(10), Currency: "XAF"}, "retry-1")
	require.NoError(t, err)
	assert.Equal(t, "retry-1", b.LastRequest(routeWithdraw).Header.Get("Idempotency-Key"))
}

func TestMovement_RejectsNonPositiveAmount(t *testing.T) {
	b := testutils.NewBackend(t)
	deps, _ := testutils.Deps(t, b.URL)
	svc := wallet.New(deps)
	b.Handle(routeWithdraw, http.StatusOK, walletdomain.Operation{})

	for _, amount := range []int64{0, -5} {
		_, err := svc.Withdraw(context.Background(), walletdomain.MovementInput{Amount: decimal.NewFromInt(amount)}, "")
		require.ErrorIs(t, err, walletdomain.ErrInvalidAmount)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	assert.Zero(t, b.Count(routeWithdraw))
}

func TestWithdraw_InvalidatesMerchantStats(t *testing.T) {
	b := testutils.NewBackend(t)
	deps, _ := testutils.Deps(t, b.URL)
	svc := wallet.New(deps)
	dash := merchants.New(deps)
	b.Handle(routeStats, http.StatusOK, map[string]any{"totalTransactions": 1})
	b.Handle(routeWithdraw, http.StatusOK, walletdomain.Operation{ID: "op3"})
	ctx := context.Background()

	_, err := dash.Stats(ctx)
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, walletdomain.MovementInput{Amount: decimal.NewFromInt(10)}, "")
	require.NoError(t, err)
	_, err = dash.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count(routeStats))
}

func TestWithdraw_FailureShowsBackendMessage(t *testing.T) {
	b := testutils.NewBackend(t)
	deps, bus := testutils.Deps(t, b.URL)
	svc := wallet.New(deps)
	b.Handle(routeWithdraw, http.StatusBadRequest, "Insufficient balance")

	_, err := svc.Withdraw(context.Background(), walletdomain.MovementInput{Amount: decimal.NewFromInt(10)}, "")
	require.Error(t, err)
	assert.Equal(t, "Insufficient balance", notify.ErrorText(err, "Withdrawal failed"))
	assert.Equal(t, eventbus.OutcomeFailed, testutils.LastAdminAction(t, bus).Outcome)
}
