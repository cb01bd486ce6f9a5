package admin_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	infraeventbus "github.com/amirasaad/payconsole/infra/eventbus"
	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/fee"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/service/admin"
	"github.com/amirasaad/payconsole/pkg/testutils"
	"github.com/amirasaad/payconsole/pkg/ui/confirm"
	"github.com/amirasaad/payconsole/pkg/ui/notify"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*admin.Service, *testutils.Backend, *infraeventbus.MemoryEventBus) {
	t.Helper()
	b := testutils.NewBackend(t)
	deps, bus := testutils.Deps(t, b.URL)
	return admin.New(deps), b, bus
}

func mtnRule(id string, status fee.Status) fee.Rule {
	return fee.Rule{
		ID:               id,
		FeeVersionID:     "v1",
		Gateway:          "MTN",
		Currency:         "XAF",
		TransactionType:  fee.Collection,
		GatewayFeeType:   fee.Percentage,
		GatewayFeeValue:  decimal.RequireFromString("1.5"),
		PlatformFeeType:  fee.Fixed,
		PlatformFeeValue: decimal.RequireFromString("50"),
		Status:           status,
	}
}

func TestActivateFeeRule_DeclinedSendsNothing(t *testing.T) {
	svc, b, bus := newService(t)
	b.Handle("POST /v1/admin/fee-rules/{id}/activate", http.StatusOK, mtnRule("r2", fee.Active))

	rec := &confirm.Recorder{Answer: false}
	_, err := svc.ActivateFeeRule(context.Background(), mtnRule("r2", fee.Inactive), rec)

	require.ErrorIs(t, err, admin.ErrActivationDeclined)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Zero(t, b.Count("POST /v1/admin/fee-rules/{id}/activate"))
	require.Len(t, rec.Prompts, 1)
	assert.Contains(t, rec.Prompts[0].Message, "MTN")
	assert.Contains(t, rec.Prompts[0].Message, "XAF")
	assert.Contains(t, rec.Prompts[0].Message, "COLLECTION")
	assert.Equal(t, eventbus.OutcomeDeclined, testutils.LastAdminAction(t, bus).Outcome)
}

func TestActivateFeeRule_ConfirmedInvalidatesRules(t *testing.T) {
	svc, b, bus := newService(t)
	b.Handle("GET /v1/admin/fee-rules", http.StatusOK, []fee.Rule{mtnRule("r1", fee.Active), mtnRule("r2", fee.Inactive)})
	b.Handle("POST /v1/admin/fee-rules/{id}/activate", http.StatusOK, mtnRule("r2", fee.Active))
	ctx := context.Background()

	rules, err := svc.FeeRules(ctx, fee.RuleFilter{})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	_, err = svc.FeeRules(ctx, fee.RuleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count("GET /v1/admin/fee-rules"))

	got, err := svc.ActivateFeeRuleByID(ctx, "r2", confirm.Always)
	require.NoError(t, err)
	assert.Equal(t, fee.Active, got.Status)
	assert.Equal(t, 1, b.Count("POST /v1/admin/fee-rules/{id}/activate"))

	_, err = svc.FeeRules(ctx, fee.RuleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count("GET /v1/admin/fee-rules"))

	evt := testutils.LastAdminAction(t, bus)
	assert.Equal(t, "fee-rule.activate", evt.Action)
	assert.Equal(t, "r2", evt.ResourceID)
	assert.Equal(t, eventbus.OutcomeSucceeded, evt.Outcome)
}

func TestActivateFeeRuleByID_Unknown(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("GET /v1/admin/fee-rules", http.StatusOK, []fee.Rule{mtnRule("r1", fee.Active)})

	_, err := svc.ActivateFeeRuleByID(context.Background(), "nope", confirm.Always)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActivateFeeRule_BackendErrorKeepsCacheAndShowsMessage(t *testing.T) {
	svc, b, bus := newService(t)
	b.Handle("GET /v1/admin/fee-rules", http.StatusOK, []fee.Rule{mtnRule("r2", fee.Inactive)})
	b.Handle("POST /v1/admin/fee-rules/{id}/activate", http.StatusConflict, "Fee version is not active")
	ctx := context.Background()

	_, err := svc.FeeRules(ctx, fee.RuleFilter{})
	require.NoError(t, err)

	_, err = svc.ActivateFeeRule(ctx, mtnRule("r2", fee.Inactive), confirm.Always)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Fee version is not active", notify.ErrorText(err, "Failed to activate fee rule"))

	_, err = svc.FeeRules(ctx, fee.RuleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count("GET /v1/admin/fee-rules"))
	assert.Equal(t, eventbus.OutcomeFailed, testutils.LastAdminAction(t, bus).Outcome)
}

func TestActivateFeeVersion_InvalidatesVersionsAndRules(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("GET /v1/admin/fee-versions", http.StatusOK, []fee.Version{{ID: "v1", Version: 1, IsActive: true}, {ID: "v2", Version: 2}})
	b.Handle("GET /v1/admin/fee-rules", http.StatusOK, []fee.Rule{mtnRule("r1", fee.Active)})
	b.Handle("POST /v1/admin/fee-versions/{id}/activate", http.StatusOK, fee.Version{ID: "v2", Version: 2, IsActive: true})
	ctx := context.Background()

	_, err := svc.FeeVersions(ctx)
	require.NoError(t, err)
	_, err = svc.FeeRules(ctx, fee.RuleFilter{FeeVersionID: "v1"})
	require.NoError(t, err)

	v, err := svc.ActivateFeeVersion(ctx, "v2", confirm.Always)
	require.NoError(t, err)
	assert.True(t, v.IsActive)

	_, err = svc.FeeVersions(ctx)
	require.NoError(t, err)
	_, err = svc.FeeRules(ctx, fee.RuleFilter{FeeVersionID: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count("GET /v1/admin/fee-versions"))
	assert.Equal(t, 2, b.Count("GET /v1/admin/fee-rules"))
}

func TestCreateFeeRule_InvalidInputSendsNothing(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("POST /v1/admin/fee-rules", http.StatusCreated, mtnRule("r9", fee.Inactive))

	_, err := svc.CreateFeeRule(context.Background(), fee.CreateRuleInput{
		FeeVersionID:     "v1",
		Gateway:          "MTN",
		Currency:         "XAF",
		TransactionType:  fee.Collection,
		GatewayFeeType:   fee.Percentage,
		GatewayFeeValue:  decimal.RequireFromString("150"),
		PlatformFeeType:  fee.Fixed,
		PlatformFeeValue: decimal.Zero,
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, b.Count("POST /v1/admin/fee-rules"))
}

func TestCreateFeeTier_RequiresTieredRule(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("GET /v1/admin/fee-rules", http.StatusOK, []fee.Rule{mtnRule("r1", fee.Active)})
	b.Handle("GET /v1/admin/fee-rules/{id}/tiers", http.StatusOK, []fee.Tier{})
	b.Handle("POST /v1/admin/fee-rules/{id}/tiers", http.StatusCreated, fee.Tier{ID: "t1"})

	_, err := svc.CreateFeeTier(context.Background(), "r1", fee.TierInput{
		MinAmount:        decimal.Zero,
		GatewayFeeValue:  decimal.RequireFromString("1"),
		PlatformFeeValue: decimal.RequireFromString("1"),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, b.Count("POST /v1/admin/fee-rules/{id}/tiers"))
}

func TestFeeRulesView_ReportsConflicts(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("GET /v1/admin/fee-rules", http.StatusOK, []fee.Rule{mtnRule("r1", fee.Active), mtnRule("r2", fee.Active)})

	view, err := svc.FeeRulesView(context.Background(), fee.RuleFilter{})
	require.NoError(t, err)
	require.Len(t, view.Conflicts, 1)
	assert.Equal(t, []string{"r1", "r2"}, view.Conflicts[0].RuleIDs)
}

func TestFeePage_LoadsOnlySelectedTab(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("GET /v1/admin/fee-versions", http.StatusOK, []fee.Version{{ID: "v1", IsActive: true}})
	b.Handle("GET /v1/admin/fee-rules", http.StatusOK, []fee.Rule{})
	b.Handle("GET /v1/admin/merchant-fee-overrides", http.StatusOK, []fee.Override{})

	page := svc.FeePage(admin.FeePageOptions{})
	assert.Equal(t, []string{admin.TabVersions, admin.TabRules, admin.TabOverrides, admin.TabWalletSettings}, page.Names())
	assert.Zero(t, b.Count("GET /v1/admin/fee-versions"))

	data, err := page.Switch(context.Background(), admin.TabOverrides)
	require.NoError(t, err)
	assert.IsType(t, []fee.Override{}, data)
	assert.Equal(t, 1, b.Count("GET /v1/admin/merchant-fee-overrides"))
	assert.Zero(t, b.Count("GET /v1/admin/fee-versions"))
	assert.Zero(t, b.Count("GET /v1/admin/fee-rules"))
}

func TestReview(t *testing.T) {
	pending := merchant.Merchant{ID: "m1", KYCStatus: merchant.KYCPending, ProductionState: merchant.ProductionNotRequested}
	approved := pending
	approved.KYCStatus = merchant.KYCApproved

	t.Run("approve pending KYB", func(t *testing.T) {
		svc, b, _ := newService(t)
		b.Handle("GET /admin/v1/merchants/{id}", http.StatusOK, pending)
		b.Handle("POST /admin/v1/merchants/{id}/kyb/approve", http.StatusOK, approved)

		m, err := svc.Review(context.Background(), "m1", merchant.ActionApproveKYB, merchant.ReviewInput{})
		require.NoError(t, err)
		assert.Equal(t, merchant.KYCApproved, m.KYCStatus)
		assert.Equal(t, 1, b.Count("POST /admin/v1/merchants/{id}/kyb/approve"))
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		svc, b, _ := newService(t)
		b.Handle("GET /admin/v1/merchants/{id}", http.StatusOK, pending)
		b.Handle("POST /admin/v1/merchants/{id}/kyb/reject", http.StatusOK, pending)

		_, err := svc.Review(context.Background(), "m1", merchant.ActionRejectKYB, merchant.ReviewInput{})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, b.Count("POST /admin/v1/merchants/{id}/kyb/reject"))
	})

	t.Run("action not available", func(t *testing.T) {
		svc, b, _ := newService(t)
		b.Handle("GET /admin/v1/merchants/{id}", http.StatusOK, approved)

		_, err := svc.Review(context.Background(), "m1", merchant.ActionSuspendProduction, merchant.ReviewInput{})
		assert.True(t, errors.Is(err, admin.ErrActionNotAvailable))
	})
}

func TestDashboard_PartialFailure(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("GET /admin/v1/dashboard/platform-metrics", http.StatusOK, map[string]any{"totalMerchants": 3})
	b.Handle("GET /admin/v1/dashboard/health-metrics", http.StatusServiceUnavailable, "health unavailable")
	b.Handle("GET /admin/v1/dashboard/gateway-performance", http.StatusOK, []any{})

	d, err := svc.Dashboard(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, d.Platform.TotalMerchants)
	assert.Equal(t, 1, b.Count("GET /admin/v1/dashboard/gateway-performance"))
}
