// Package merchant models merchants as returned by the merchant and admin
// APIs, together with the client-side checks the console applies before
// issuing lifecycle requests.
package merchant

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrNoDocuments is returned when a KYB submission is attempted with no
	// uploaded documents. No request is sent in that case.
	ErrNoDocuments = fmt.Errorf("%w: upload at least one KYB document before submitting", domain.ErrValidation)
	// ErrProductionNotAllowed is returned when production access cannot be
	// requested in the merchant's current state.
	ErrProductionNotAllowed = fmt.Errorf("%w: production access cannot be requested in the current state", domain.ErrValidation)
	// ErrInvalidDomain is returned for malformed allowlist domains.
	ErrInvalidDomain = fmt.Errorf("%w: invalid domain", domain.ErrValidation)
	// ErrInvalidIP is returned for malformed allowlist IPs.
	ErrInvalidIP = fmt.Errorf("%w: invalid IP address or CIDR range", domain.ErrValidation)
	// ErrInvalidDocumentType is returned for an unknown KYB document type.
	ErrInvalidDocumentType = fmt.Errorf("%w: unknown document type", domain.ErrValidation)
)

// KYCStatus is the KYB review state: NOT_SUBMITTED -> PENDING -> APPROVED|REJECTED.
type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "NOT_SUBMITTED"
	KYCPending      KYCStatus = "PENDING"
	KYCApproved     KYCStatus = "APPROVED"
	KYCRejected     KYCStatus = "REJECTED"
)

// ProductionState: NOT_REQUESTED -> PENDING_APPROVAL -> ACTIVE|SUSPENDED.
type ProductionState string

const (
	ProductionNotRequested    ProductionState = "NOT_REQUESTED"
	ProductionPendingApproval ProductionState = "PENDING_APPROVAL"
	ProductionActive          ProductionState = "ACTIVE"
	ProductionSuspended       ProductionState = "SUSPENDED"
)

// SandboxState of the merchant's sandbox environment.
type SandboxState string

const (
	SandboxActive   SandboxState = "ACTIVE"
	SandboxDisabled SandboxState = "DISABLED"
)

// Merchant as exposed by /merchant/v1/merchants and /admin/v1/merchants.
type Merchant struct {
	ID                 string          `json:"id"`
	BusinessName       string          `json:"businessName"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	BusinessType       string          `json:"businessType"`
	Country            string          `json:"country"`
	KYCStatus          KYCStatus       `json:"kycStatus"`
	SandboxState       SandboxState    `json:"sandboxState"`
	ProductionState    ProductionState `json:"productionState"`
	SandboxAPIKey      string          `json:"sandboxApiKey,omitempty"`
	ProductionAPIKey   *string         `json:"productionApiKey,omitempty"`
	RateLimitPerMinute int             `json:"rateLimitPerMinute"`
	WebhookURL         string          `json:"webhookUrl,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// CanRequestProduction reports whether the merchant may ask for production
// access: KYB must be approved and no request may be outstanding.
func (m Merchant) CanRequestProduction() bool {
	return m.KYCStatus == KYCApproved && m.ProductionState == ProductionNotRequested
}

// CanSubmitKYB reports whether a KYB submission makes sense for the current
// review state.
func (m Merchant) CanSubmitKYB() bool {
	return m.KYCStatus == KYCNotSubmitted || m.KYCStatus == KYCRejected
}

// Action is an admin action available on a merchant.
type Action string

const (
	ActionApproveKYB        Action = "kyb.approve"
	ActionRejectKYB         Action = "kyb.reject"
	ActionApproveProduction Action = "production.approve"
	ActionSuspendProduction Action = "production.suspend"
)

// AdminActions lists the review actions that apply to m's current state.
func (m Merchant) AdminActions() []Action {
	var out []Action
	if m.KYCStatus == KYCPending {
		out = append(out, ActionApproveKYB, ActionRejectKYB)
	}
	switch m.ProductionState {
	case ProductionPendingApproval:
		out = append(out, ActionApproveProduction)
	case ProductionActive:
		out = append(out, ActionSuspendProduction)
	case ProductionSuspended:
		out = append(out, ActionApproveProduction)
	}
	return out
}

// CreateInput is the body of POST /merchant/v1/merchants.
type CreateInput struct {
	BusinessName string `json:"businessName" validate:"required,min=2,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
	BusinessType string `json:"businessType" validate:"required"`
	Country      string `json:"country" validate:"required,len=2"`
	WebhookURL   string `json:"webhookUrl,omitempty" validate:"omitempty,url"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate applies the onboarding form rules.
func (in CreateInput) Validate() error {
	err := validate.Struct(in)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email", "url":
			msgs = append(msgs, fe.Field()+" must be a valid "+fe.Tag())
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, ", "))
}

// User is a merchant account user listed by /admin/v1/merchant-users.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	MerchantID   string    `json:"merchantId"`
	BusinessName string    `json:"businessName"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSearchFields are the fields free-text search matches on.
func UserSearchFields(u User) []string {
	return []string{u.Email, u.Name, u.BusinessName}
}

// APIKeys returned after a key regeneration.
type APIKeys struct {
	SandboxAPIKey    string  `json:"sandboxApiKey"`
	ProductionAPIKey *string `json:"productionApiKey,omitempty"`
}
