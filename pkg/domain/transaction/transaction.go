// Package transaction holds the transaction view returned by the admin and
// merchant transaction endpoints.
package transaction

import (
	"net/url"
	"time"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/shopspring/decimal"
)

// Status of a payment transaction.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSuccessful Status = "SUCCESSFUL"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

// Environment the transaction ran in.
type Environment string

const (
	Sandbox    Environment = "SANDBOX"
	Production Environment = "PRODUCTION"
)

// Transaction is a single collection or disbursement.
type Transaction struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	MerchantID      string          `json:"merchantId"`
	MerchantName    string          `json:"merchantName,omitempty"`
	Gateway         string          `json:"gateway"`
	TransactionType string          `json:"transactionType"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	GatewayFee      decimal.Decimal `json:"gatewayFee"`
	PlatformFee     decimal.Decimal `json:"platformFee"`
	Status          Status          `json:"status"`
	Environment     Environment     `json:"environment"`
	PhoneNumber     string          `json:"phoneNumber,omitempty"`
	FailureReason   string          `json:"failureReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// Filter narrows GET /admin/v1/transactions. Zero values are omitted.
type Filter struct {
	Limit           int         `query:"limit"`
	Offset          int         `query:"offset"`
	Status          Status      `query:"status"`
	TransactionType string      `query:"transactionType"`
	Gateway         string      `query:"gateway"`
	MerchantID      string      `query:"merchantId"`
	Environment     Environment `query:"environment"`
}

// Values encodes the filter as query parameters.
func (f Filter) Values() url.Values {
	return apiclient.Values(
		"limit", max(f.Limit, 0),
		"offset", max(f.Offset, 0),
		"status", f.Status,
		"transactionType", f.TransactionType,
		"gateway", f.Gateway,
		"merchantId", f.MerchantID,
		"environment", f.Environment,
	)
}

// Page is a page of transactions with the backend's total count.
type Page struct {
	Items  []Transaction `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// SearchFields are the fields free-text search matches on.
func SearchFields(t Transaction) []string {
	return []string{t.ID, t.Reference, t.MerchantName, t.Gateway, t.PhoneNumber}
}
