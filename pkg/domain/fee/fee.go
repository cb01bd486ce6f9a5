// Package fee describes the fee configuration exposed by the admin fee API:
// versions, rules, tiers and merchant overrides.
//
// The backend owns every invariant described here. The helpers in this
// package only inspect what the backend returned so the console can explain
// it to an operator.
package fee

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money movement a rule applies to.
type TransactionType string

const (
	Collection   TransactionType = "COLLECTION"
	Disbursement TransactionType = "DISBURSEMENT"
)

// Type is how a fee value is interpreted.
type Type string

const (
	Percentage Type = "PERCENTAGE"
	Fixed      Type = "FIXED"
	Tiered     Type = "TIERED"
)

// Status of a rule or override.
type Status string

const (
	Active   Status = "ACTIVE"
	Inactive Status = "INACTIVE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Collection || t == Disbursement
}

// Valid reports whether t is a known fee type.
func (t Type) Valid() bool {
	return t == Percentage || t == Fixed || t == Tiered
}

// Version is a platform-wide snapshot of the fee rules. Only one version is
// active at a time.
type Version struct {
	ID          string    `json:"id"`
	Version     int       `json:"version"`
	IsActive    bool      `json:"isActive"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Tuple identifies the scope of a rule: at most one ACTIVE rule exists per
// tuple.
type Tuple struct {
	Gateway         string          `json:"gateway"`
	Currency        string          `json:"currency"`
	TransactionType TransactionType `json:"transactionType"`
}

func (t Tuple) String() string {
	return fmt.Sprintf("%s/%s/%s", t.Gateway, t.Currency, t.TransactionType)
}

// Rule is the default fee formula for a tuple within a version.
type Rule struct {
	ID               string           `json:"id"`
	FeeVersionID     string           `json:"feeVersionId"`
	Gateway          string           `json:"gateway"`
	TransactionType  TransactionType  `json:"transactionType"`
	Currency         string           `json:"currency"`
	MinAmount        decimal.Decimal  `json:"minAmount"`
	MaxAmount        *decimal.Decimal `json:"maxAmount,omitempty"`
	GatewayFeeType   Type             `json:"gatewayFeeType"`
	GatewayFeeValue  decimal.Decimal  `json:"gatewayFeeValue"`
	PlatformFeeType  Type             `json:"platformFeeType"`
	PlatformFeeValue decimal.Decimal  `json:"platformFeeValue"`
	Priority         int              `json:"priority"`
	Status           Status           `json:"status"`
	Tiers            []Tier           `json:"tiers,omitempty"`
}

func (r Rule) Tuple() Tuple {
	return Tuple{Gateway: r.Gateway, Currency: r.Currency, TransactionType: r.TransactionType}
}

func (r Rule) IsActive() bool { return r.Status == Active }

// IsTiered reports whether either side of the rule is computed from tiers.
func (r Rule) IsTiered() bool {
	return r.GatewayFeeType == Tiered || r.PlatformFeeType == Tiered
}

// Tier is an amount sub-range of a TIERED rule.
type Tier struct {
	ID               string           `json:"id"`
	FeeRuleID        string           `json:"feeRuleId"`
	MinAmount        decimal.Decimal  `json:"minAmount"`
	MaxAmount        *decimal.Decimal `json:"maxAmount,omitempty"`
	GatewayFeeValue  decimal.Decimal  `json:"gatewayFeeValue"`
	PlatformFeeValue decimal.Decimal  `json:"platformFeeValue"`
}

// Override replaces the general rule for one merchant at the same tuple.
type Override struct {
	ID               string          `json:"id"`
	MerchantID       string          `json:"merchantId"`
	Gateway          string          `json:"gateway"`
	TransactionType  TransactionType `json:"transactionType"`
	Currency         string          `json:"currency"`
	GatewayFeeType   Type            `json:"gatewayFeeType"`
	GatewayFeeValue  decimal.Decimal `json:"gatewayFeeValue"`
	PlatformFeeType  Type            `json:"platformFeeType"`
	PlatformFeeValue decimal.Decimal `json:"platformFeeValue"`
	Status           Status          `json:"status"`
}

func (o Override) Tuple() Tuple {
	return Tuple{Gateway: o.Gateway, Currency: o.Currency, TransactionType: o.TransactionType}
}

func (o Override) IsActive() bool { return o.Status == Active }
