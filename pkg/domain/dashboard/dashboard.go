// Package dashboard holds the admin and merchant dashboard read models.
package dashboard

import (
	"github.com/amirasaad/payconsole/pkg/domain/transaction"
	"github.com/shopspring/decimal"
)

// PlatformMetrics is returned by /admin/v1/dashboard/platform-metrics.
type PlatformMetrics struct {
	TotalMerchants       int             `json:"totalMerchants"`
	ActiveMerchants      int             `json:"activeMerchants"`
	PendingKYB           int             `json:"pendingKyb"`
	TotalTransactions    int             `json:"totalTransactions"`
	TotalVolume          decimal.Decimal `json:"totalVolume"`
	TotalPlatformRevenue decimal.Decimal `json:"totalPlatformRevenue"`
	SuccessRate          float64         `json:"successRate"`
	Currency             string          `json:"currency"`
}

// ServiceHealth is one row of /admin/v1/dashboard/health-metrics.
type ServiceHealth struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	LatencyMs float64 `json:"latencyMs"`
	ErrorRate float64 `json:"errorRate"`
	UptimePct float64 `json:"uptimePercentage"`
}

// HealthMetrics is returned by /admin/v1/dashboard/health-metrics.
type HealthMetrics struct {
	Overall  string          `json:"overall"`
	Services []ServiceHealth `json:"services"`
}

// Healthy reports whether every service reports UP.
func (h HealthMetrics) Healthy() bool {
	for _, s := range h.Services {
		if s.Status != "UP" {
			return false
		}
	}
	return true
}

// GatewayPerformance is one row of /admin/v1/dashboard/gateway-performance.
type GatewayPerformance struct {
	Gateway          string          `json:"gateway"`
	TransactionCount int             `json:"transactionCount"`
	SuccessCount     int             `json:"successCount"`
	FailedCount      int             `json:"failedCount"`
	Volume           decimal.Decimal `json:"volume"`
	AvgLatencyMs     float64         `json:"avgLatencyMs"`
}

// SuccessRate in percent; zero when there are no transactions.
func (g GatewayPerformance) SuccessRate() float64 {
	if g.TransactionCount == 0 {
		return 0
	}
	return float64(g.SuccessCount) * 100 / float64(g.TransactionCount)
}

// MerchantStats is returned by /merchant/v1/dashboard/stats.
type MerchantStats struct {
	TotalTransactions int             `json:"totalTransactions"`
	SuccessfulCount   int             `json:"successfulCount"`
	FailedCount       int             `json:"failedCount"`
	TotalVolume       decimal.Decimal `json:"totalVolume"`
	TotalFees         decimal.Decimal `json:"totalFees"`
	WalletBalance     decimal.Decimal `json:"walletBalance"`
	Currency          string          `json:"currency"`
	Environment       string          `json:"environment"`
}

// RecentTransactions is returned by /merchant/v1/dashboard/recent-transactions.
type RecentTransactions struct {
	Items []transaction.Transaction `json:"items"`
}
