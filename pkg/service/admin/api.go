package admin

import (
	"context"
	"net/url"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/domain/dashboard"
	"github.com/amirasaad/payconsole/pkg/domain/fee"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/domain/transaction"
	"github.com/amirasaad/payconsole/pkg/domain/wallet"
)

// API calls the admin endpoints of the backend. It does no caching.
type API struct {
	c *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API { return &API{c: c} }

func (a *API) PlatformMetrics(ctx context.Context) (dashboard.PlatformMetrics, error) {
	var out dashboard.PlatformMetrics
	err := a.c.Get(ctx, "/admin/v1/dashboard/platform-metrics", nil, &out)
	return out, err
}

func (a *API) HealthMetrics(ctx context.Context) (dashboard.HealthMetrics, error) {
	var out dashboard.HealthMetrics
	err := a.c.Get(ctx, "/admin/v1/dashboard/health-metrics", nil, &out)
	return out, err
}

func (a *API) GatewayPerformance(ctx context.Context) ([]dashboard.GatewayPerformance, error) {
	var out []dashboard.GatewayPerformance
	err := a.c.Get(ctx, "/admin/v1/dashboard/gateway-performance", nil, &out)
	return out, err
}

func (a *API) MerchantUsers(ctx context.Context) ([]merchant.User, error) {
	var out []merchant.User
	err := a.c.Get(ctx, "/admin/v1/merchant-users", nil, &out)
	return out, err
}

func (a *API) Transactions(ctx context.Context, f transaction.Filter) (transaction.Page, error) {
	var out transaction.Page
	err := a.c.Get(ctx, "/admin/v1/transactions", f.Values(), &out)
	return out, err
}

// fee versions

func (a *API) FeeVersions(ctx context.Context) ([]fee.Version, error) {
	var out []fee.Version
	err := a.c.Get(ctx, "/v1/admin/fee-versions", nil, &out)
	return out, err
}

func (a *API) CreateFeeVersion(ctx context.Context, in fee.CreateVersionInput) (fee.Version, error) {
	var out fee.Version
	err := a.c.Post(ctx, "/v1/admin/fee-versions", in, &out)
	return out, err
}

func (a *API) ActivateFeeVersion(ctx context.Context, id string) (fee.Version, error) {
	var out fee.Version
	err := a.c.Post(ctx, "/v1/admin/fee-versions/"+url.PathEscape(id)+"/activate", nil, &out)
	return out, err
}

// fee rules

func (a *API) FeeRules(ctx context.Context, f fee.RuleFilter) ([]fee.Rule, error) {
	var out []fee.Rule
	err := a.c.Get(ctx, "/v1/admin/fee-rules", f.Values(), &out)
	return out, err
}

func (a *API) CreateFeeRule(ctx context.Context, in fee.CreateRuleInput) (fee.Rule, error) {
	var out fee.Rule
	err := a.c.Post(ctx, "/v1/admin/fee-rules", in, &out)
	return out, err
}

func (a *API) UpdateFeeRule(ctx context.Context, id string, in fee.UpdateRuleInput) (fee.Rule, error) {
	var out fee.Rule
	err := a.c.Patch(ctx, "/v1/admin/fee-rules/"+url.PathEscape(id), in, &out)
	return out, err
}

func (a *API) ActivateFeeRule(ctx context.Context, id string) (fee.Rule, error) {
	var out fee.Rule
	err := a.c.Post(ctx, "/v1/admin/fee-rules/"+url.PathEscape(id)+"/activate", nil, &out)
	return out, err
}

func (a *API) DeactivateFeeRule(ctx context.Context, id string) (fee.Rule, error) {
	var out fee.Rule
	err := a.c.Post(ctx, "/v1/admin/fee-rules/"+url.PathEscape(id)+"/deactivate", nil, &out)
	return out, err
}

// fee tiers

func (a *API) FeeTiers(ctx context.Context, ruleID string) ([]fee.Tier, error) {
	var out []fee.Tier
	err := a.c.Get(ctx, "/v1/admin/fee-rules/"+url.PathEscape(ruleID)+"/tiers", nil, &out)
	return out, err
}

func (a *API) CreateFeeTier(ctx context.Context, ruleID string, in fee.TierInput) (fee.Tier, error) {
	var out fee.Tier
	err := a.c.Post(ctx, "/v1/admin/fee-rules/"+url.PathEscape(ruleID)+"/tiers", in, &out)
	return out, err
}

func (a *API) UpdateFeeTier(ctx context.Context, id string, in fee.TierInput) (fee.Tier, error) {
	var out fee.Tier
	err := a.c.Patch(ctx, "/v1/admin/fee-tiers/"+url.PathEscape(id), in, &out)
	return out, err
}

// merchant fee overrides

func (a *API) Overrides(ctx context.Context, f fee.OverrideFilter) ([]fee.Override, error) {
	var out []fee.Override
	err := a.c.Get(ctx, "/v1/admin/merchant-fee-overrides", f.Values(), &out)
	return out, err
}

func (a *API) CreateOverride(ctx context.Context, in fee.CreateOverrideInput) (fee.Override, error) {
	var out fee.Override
	err := a.c.Post(ctx, "/v1/admin/merchant-fee-overrides", in, &out)
	return out, err
}

func (a *API) UpdateOverride(ctx context.Context, id string, in fee.UpdateOverrideInput) (fee.Override, error) {
	var out fee.Override
	err := a.c.Patch(ctx, "/v1/admin/merchant-fee-overrides/"+url.PathEscape(id), in, &out)
	return out, err
}

func (a *API) DeactivateOverride(ctx context.Context, id string) (fee.Override, error) {
	var out fee.Override
	err := a.c.Post(ctx, "/v1/admin/merchant-fee-overrides/"+url.PathEscape(id)+"/deactivate", nil, &out)
	return out, err
}

// wallet fee settings

func (a *API) WalletFeeSettings(ctx context.Context) (wallet.FeeSettings, error) {
	var out wallet.FeeSettings
	err := a.c.Get(ctx, "/admin/v1/platform/wallet-fee-settings", nil, &out)
	return out, err
}

func (a *API) UpdateWalletFeeSettings(ctx context.Context, in wallet.FeeSettingsUpdate) (wallet.FeeSettings, error) {
	var out wallet.FeeSettings
	err := a.c.Patch(ctx, "/admin/v1/platform/wallet-fee-settings", in, &out)
	return out, err
}

// merchant review

// MerchantFilter narrows GET /admin/v1/merchants.
type MerchantFilter struct {
	Search          string                   `query:"search"`
	KYCStatus       merchant.KYCStatus       `query:"kycStatus"`
	ProductionState merchant.ProductionState `query:"productionState"`
}

func (f MerchantFilter) values() url.Values {
	return apiclient.Values("search", f.Search, "kycStatus", f.KYCStatus, "productionState", f.ProductionState)
}

func (a *API) Merchants(ctx context.Context, f MerchantFilter) ([]merchant.Merchant, error) {
	var out []merchant.Merchant
	err := a.c.Get(ctx, "/admin/v1/merchants", f.values(), &out)
	return out, err
}

func (a *API) Merchant(ctx context.Context, id string) (merchant.Merchant, error) {
	var out merchant.Merchant
	err := a.c.Get(ctx, "/admin/v1/merchants/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (a *API) KYBSubmissions(ctx context.Context, status merchant.KYCStatus) ([]merchant.Submission, error) {
	var out []merchant.Submission
	err := a.c.Get(ctx, "/admin/v1/kyb/submissions", apiclient.Values("status", status), &out)
	return out, err
}

func (a *API) review(ctx context.Context, id, action string, in merchant.ReviewInput) (merchant.Merchant, error) {
	var out merchant.Merchant
	err := a.c.Post(ctx, "/admin/v1/merchants/"+url.PathEscape(id)+"/"+action, in, &out)
	return out, err
}

func (a *API) ApproveKYB(ctx context.Context, id string, in merchant.ReviewInput) (merchant.Merchant, error) {
	return a.review(ctx, id, "kyb/approve", in)
}

func (a *API) RejectKYB(ctx context.Context, id string, in merchant.ReviewInput) (merchant.Merchant, error) {
	return a.review(ctx, id, "kyb/reject", in)
}

func (a *API) ApproveProduction(ctx context.Context, id string, in merchant.ReviewInput) (merchant.Merchant, error) {
	return a.review(ctx, id, "production/approve", in)
}

func (a *API) SuspendProduction(ctx context.Context, id string, in merchant.ReviewInput) (merchant.Merchant, error) {
	return a.review(ctx, id, "production/suspend", in)
}
