// Package wallet models the merchant wallet and the platform wallet fee
// settings.
package wallet

import (
	"fmt"
	"net/url"
	"time"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for non-positive topup or withdraw amounts.
var ErrInvalidAmount = fmt.Errorf("%w: amount must be greater than zero", domain.ErrValidation)

// Balance is returned by GET /merchant/v1/wallet.
type Balance struct {
	MerchantID      string          `json:"merchantId"`
	Currency        string          `json:"currency"`
	Available       decimal.Decimal `json:"availableBalance"`
	Pending         decimal.Decimal `json:"pendingBalance"`
	Reserved        decimal.Decimal `json:"reservedBalance"`
	LastOperationAt *time.Time      `json:"lastOperationAt,omitempty"`
}

// OperationType of a wallet movement.
type OperationType string

const (
	OpTopup      OperationType = "TOPUP"
	OpWithdraw   OperationType = "WITHDRAW"
	OpCollection OperationType = "COLLECTION"
	OpPayout     OperationType = "PAYOUT"
	OpFee        OperationType = "FEE"
)

// Operation is one wallet ledger line.
type Operation struct {
	ID           string          `json:"id"`
	Type         OperationType   `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Fee          decimal.Decimal `json:"fee"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	Reference    string          `json:"reference,omitempty"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// MovementInput is the body of topup and withdraw requests.
type MovementInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Gateway     string          `json:"gateway,omitempty"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Validate requires a strictly positive amount.
func (in MovementInput) Validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// OperationFilter narrows GET /merchant/v1/wallet/operations.
type OperationFilter struct {
	Limit  int
	Offset int
	Type   OperationType
}

func (f OperationFilter) Values() url.Values {
	return apiclient.Values("limit", max(f.Limit, 0), "offset", max(f.Offset, 0), "type", f.Type)
}

// OperationPage is one page of wallet operations.
type OperationPage struct {
	Items  []Operation `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// FeeSettings are the platform-wide wallet fee settings.
type FeeSettings struct {
	TopupFeePercentage    decimal.Decimal `json:"topupFeePercentage"`
	WithdrawFeePercentage decimal.Decimal `json:"withdrawFeePercentage"`
	WithdrawFeeFixed      decimal.Decimal `json:"withdrawFeeFixed"`
	MinWithdrawAmount     decimal.Decimal `json:"minWithdrawAmount"`
	UpdatedAt             *time.Time      `json:"updatedAt,omitempty"`
}

// FeeSettingsUpdate is the PATCH body; nil fields are left unchanged.
type FeeSettingsUpdate struct {
	TopupFeePercentage    *decimal.Decimal `json:"topupFeePercentage,omitempty"`
	WithdrawFeePercentage *decimal.Decimal `json:"withdrawFeePercentage,omitempty"`
	WithdrawFeeFixed      *decimal.Decimal `json:"withdrawFeeFixed,omitempty"`
	MinWithdrawAmount     *decimal.Decimal `json:"minWithdrawAmount,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// ErrInvalidSettings is returned when a settings update is out of range.
var ErrInvalidSettings = fmt.Errorf("%w: wallet fee settings out of range", domain.ErrValidation)

func (u FeeSettingsUpdate) Validate() error {
	for _, p := range []*decimal.Decimal{u.TopupFeePercentage, u.WithdrawFeePercentage} {
		if p != nil && (p.IsNegative() || p.GreaterThan(hundred)) {
			return ErrInvalidSettings
		}
	}
	for _, v := range []*decimal.Decimal{u.WithdrawFeeFixed, u.MinWithdrawAmount} {
		if v != nil && v.IsNegative() {
			return ErrInvalidSettings
		}
	}
	return nil
}
