package fee

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CreateVersionInput is the body of POST /v1/admin/fee-versions.
type CreateVersionInput struct {
	Description string `json:"description"`
	// CopyFromVersionID clones the rules of an existing version when set.
	CopyFromVersionID string `json:"copyFromVersionId,omitempty"`
}

// RuleFilter narrows GET /v1/admin/fee-rules.
type RuleFilter struct {
	FeeVersionID    string          `json:"feeVersionId,omitempty" query:"feeVersionId"`
	Gateway         string          `json:"gateway,omitempty" query:"gateway"`
	Currency        string          `json:"currency,omitempty" query:"currency"`
	TransactionType TransactionType `json:"transactionType,omitempty" query:"transactionType"`
	Status          Status          `json:"status,omitempty" query:"status"`
}

// Values encodes the filter, skipping unset fields.
func (f RuleFilter) Values() url.Values {
	return apiclient.Values(
		"feeVersionId", f.FeeVersionID,
		"gateway", f.Gateway,
		"currency", f.Currency,
		"transactionType", f.TransactionType,
		"status", f.Status,
	)
}

// CreateRuleInput is the body of POST /v1/admin/fee-rules.
type CreateRuleInput struct {
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
}

// Validate applies the form rules of the create-rule dialog.
func (in CreateRuleInput) Validate() error {
	if strings.TrimSpace(in.FeeVersionID) == "" {
		return invalid("fee version is required")
	}
	if strings.TrimSpace(in.Gateway) == "" {
		return invalid("gateway is required")
	}
	if len(in.Currency) != 3 {
		return invalid("currency must be a 3-letter code")
	}
	if !in.TransactionType.Valid() {
		return invalid("unknown transaction type %q", in.TransactionType)
	}
	if err := validateRange(in.MinAmount, in.MaxAmount); err != nil {
		return err
	}
	if err := validateFormula("gateway", in.GatewayFeeType, in.GatewayFeeValue); err != nil {
		return err
	}
	return validateFormula("platform", in.PlatformFeeType, in.PlatformFeeValue)
}

// UpdateRuleInput is the body of PATCH /v1/admin/fee-rules/{id}. Nil fields
// are left unchanged.
type UpdateRuleInput struct {
	MinAmount        *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount        *decimal.Decimal `json:"maxAmount,omitempty"`
	GatewayFeeType   *Type            `json:"gatewayFeeType,omitempty"`
	GatewayFeeValue  *decimal.Decimal `json:"gatewayFeeValue,omitempty"`
	PlatformFeeType  *Type            `json:"platformFeeType,omitempty"`
	PlatformFeeValue *decimal.Decimal `json:"platformFeeValue,omitempty"`
	Priority         *int             `json:"priority,omitempty"`
}

func (in UpdateRuleInput) Validate() error {
	if in.MinAmount != nil && in.MaxAmount != nil {
		if err := validateRange(*in.MinAmount, in.MaxAmount); err != nil {
			return err
		}
	}
	if in.GatewayFeeType != nil && in.GatewayFeeValue != nil {
		if err := validateFormula("gateway", *in.GatewayFeeType, *in.GatewayFeeValue); err != nil {
			return err
		}
	} else if in.GatewayFeeValue != nil && in.GatewayFeeValue.IsNegative() {
		return invalid("gateway fee value must not be negative")
	}
	if in.PlatformFeeType != nil && in.PlatformFeeValue != nil {
		if err := validateFormula("platform", *in.PlatformFeeType, *in.PlatformFeeValue); err != nil {
			return err
		}
	} else if in.PlatformFeeValue != nil && in.PlatformFeeValue.IsNegative() {
		return invalid("platform fee value must not be negative")
	}
	return nil
}

// TierInput is the body of POST /v1/admin/fee-rules/{id}/tiers and
// PATCH /v1/admin/fee-tiers/{id}.
type TierInput struct {
	MinAmount        decimal.Decimal  `json:"minAmount"`
	MaxAmount        *decimal.Decimal `json:"maxAmount,omitempty"`
	GatewayFeeValue  decimal.Decimal  `json:"gatewayFeeValue"`
	PlatformFeeValue decimal.Decimal  `json:"platformFeeValue"`
}

func (in TierInput) Validate() error {
	if err := validateRange(in.MinAmount, in.MaxAmount); err != nil {
		return err
	}
	if in.GatewayFeeValue.IsNegative() || in.PlatformFeeValue.IsNegative() {
		return invalid("tier fee values must not be negative")
	}
	return nil
}

// ValidateTierFor checks that a tier may be attached to rule next to the
// tiers it already has.
func ValidateTierFor(rule Rule, existing []Tier, in TierInput, replacingID string) error {
	if !rule.IsTiered() {
		return invalid("rule %s is not TIERED", rule.ID)
	}
	if err := in.Validate(); err != nil {
		return err
	}
	candidate := Tier{ID: replacingID, MinAmount: in.MinAmount, MaxAmount: in.MaxAmount}
	tiers := make([]Tier, 0, len(existing)+1)
	for _, t := range existing {
		if replacingID != "" && t.ID == replacingID {
			continue
		}
		tiers = append(tiers, t)
	}
	tiers = append(tiers, candidate)
	return checkTierOverlap(tiers)
}

func checkTierOverlap(tiers []Tier) error {
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinAmount.LessThan(tiers[j].MinAmount) })
	for i := 1; i < len(tiers); i++ {
		prev := tiers[i-1]
		if prev.MaxAmount == nil || prev.MaxAmount.GreaterThan(tiers[i].MinAmount) {
			return invalid("tier starting at %s overlaps the previous tier", tiers[i].MinAmount)
		}
	}
	return nil
}

// OverrideFilter narrows GET /v1/admin/merchant-fee-overrides.
type OverrideFilter struct {
	MerchantID string `json:"merchantId,omitempty" query:"merchantId"`
	Status     Status `json:"status,omitempty" query:"status"`
}

func (f OverrideFilter) Values() url.Values {
	return apiclient.Values("merchantId", f.MerchantID, "status", f.Status)
}

// CreateOverrideInput is the body of POST /v1/admin/merchant-fee-overrides.
type CreateOverrideInput struct {
	MerchantID       string          `json:"merchantId"`
	Gateway          string          `json:"gateway"`
	TransactionType  TransactionType `json:"transactionType"`
	Currency         string          `json:"currency"`
	GatewayFeeType   Type            `json:"gatewayFeeType"`
	GatewayFeeValue  decimal.Decimal `json:"gatewayFeeValue"`
	PlatformFeeType  Type            `json:"platformFeeType"`
	PlatformFeeValue decimal.Decimal `json:"platformFeeValue"`
}

func (in CreateOverrideInput) Validate() error {
	if strings.TrimSpace(in.MerchantID) == "" {
		return invalid("merchant is required")
	}
	if strings.TrimSpace(in.Gateway) == "" {
		return invalid("gateway is required")
	}
	if len(in.Currency) != 3 {
		return invalid("currency must be a 3-letter code")
	}
	if !in.TransactionType.Valid() {
		return invalid("unknown transaction type %q", in.TransactionType)
	}
	if in.GatewayFeeType == Tiered || in.PlatformFeeType == Tiered {
		return invalid("overrides do not support TIERED fees")
	}
	if err := validateFormula("gateway", in.GatewayFeeType, in.GatewayFeeValue); err != nil {
		return err
	}
	return validateFormula("platform", in.PlatformFeeType, in.PlatformFeeValue)
}

// UpdateOverrideInput is the body of PATCH /v1/admin/merchant-fee-overrides/{id}.
type UpdateOverrideInput struct {
	GatewayFeeType   *Type            `json:"gatewayFeeType,omitempty"`
	GatewayFeeValue  *decimal.Decimal `json:"gatewayFeeValue,omitempty"`
	PlatformFeeType  *Type            `json:"platformFeeType,omitempty"`
	PlatformFeeValue *decimal.Decimal `json:"platformFeeValue,omitempty"`
}

func (in UpdateOverrideInput) Validate() error {
	for _, t := range []*Type{in.GatewayFeeType, in.PlatformFeeType} {
		if t != nil && *t == Tiered {
			return invalid("overrides do not support TIERED fees")
		}
	}
	if in.GatewayFeeType != nil && in.GatewayFeeValue != nil {
		if err := validateFormula("gateway", *in.GatewayFeeType, *in.GatewayFeeValue); err != nil {
			return err
		}
	} else if in.GatewayFeeValue != nil && in.GatewayFeeValue.IsNegative() {
		return invalid("gateway fee value must not be negative")
	}
	if in.PlatformFeeType != nil && in.PlatformFeeValue != nil {
		return validateFormula("platform", *in.PlatformFeeType, *in.PlatformFeeValue)
	} else if in.PlatformFeeValue != nil && in.PlatformFeeValue.IsNegative() {
		return invalid("platform fee value must not be negative")
	}
	return nil
}

func validateRange(min decimal.Decimal, max *decimal.Decimal) error {
	if min.IsNegative() {
		return invalid("minimum amount must not be negative")
	}
	if max != nil && max.LessThan(min) {
		return invalid("maximum amount %s is below minimum amount %s", max, min)
	}
	return nil
}

func validateFormula(side string, t Type, v decimal.Decimal) error {
	if !t.Valid() {
		return invalid("unknown %s fee type %q", side, t)
	}
	if v.IsNegative() {
		return invalid("%s fee value must not be negative", side)
	}
	if t == Percentage && v.GreaterThan(hundred) {
		return invalid("%s fee percentage must not exceed 100", side)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}
