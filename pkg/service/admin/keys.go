package admin

import (
	"github.com/amirasaad/payconsole/pkg/domain/fee"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/domain/transaction"
	"github.com/amirasaad/payconsole/pkg/query"
)

// Cache keys of the admin feature.
var (
	KeyRoot              = query.K("admin")
	KeyDashboard         = query.K("admin", "dashboard")
	KeyPlatformMetrics   = KeyDashboard.Append("platform-metrics")
	KeyHealthMetrics     = KeyDashboard.Append("health-metrics")
	KeyGatewayPerf       = KeyDashboard.Append("gateway-performance")
	KeyMerchantUsers     = query.K("admin", "merchant-users")
	KeyTransactions      = query.K("admin", "transactions")
	KeyFeeVersions       = query.K("admin", "fee-versions")
	KeyFeeRules          = query.K("admin", "fee-rules")
	KeyOverrides         = query.K("admin", "fee-overrides")
	KeyWalletFeeSettings = query.K("admin", "wallet-fee-settings")
	KeyMerchants         = query.K("admin", "merchants")
	KeyKYBSubmissions    = query.K("admin", "kyb-submissions")

	// KeyMerchantFeature is the root of the merchant-facing feature, which
	// admin review actions also affect.
	KeyMerchantFeature = query.K("merchants")
)

func transactionsKey(f transaction.Filter) query.Key {
	return KeyTransactions.
		With("limit", f.Limit).
		With("offset", f.Offset).
		With("status", f.Status).
		With("transactionType", f.TransactionType).
		With("gateway", f.Gateway).
		With("merchantId", f.MerchantID).
		With("environment", f.Environment)
}

func feeRulesKey(f fee.RuleFilter) query.Key {
	return KeyFeeRules.Append("list").
		With("feeVersionId", f.FeeVersionID).
		With("gateway", f.Gateway).
		With("currency", f.Currency).
		With("transactionType", f.TransactionType).
		With("status", f.Status)
}

func feeTiersKey(ruleID string) query.Key {
	return KeyFeeRules.Append("tiers", ruleID)
}

func overridesKey(f fee.OverrideFilter) query.Key {
	return KeyOverrides.With("merchantId", f.MerchantID).With("status", f.Status)
}

func merchantsKey(f MerchantFilter) query.Key {
	return KeyMerchants.Append("list").
		With("search", f.Search).
		With("kycStatus", f.KYCStatus).
		With("productionState", f.ProductionState)
}

func merchantKey(id string) query.Key {
	return KeyMerchants.Append("detail", id)
}

func kybSubmissionsKey(status merchant.KYCStatus) query.Key {
	return KeyKYBSubmissions.With("status", status)
}
