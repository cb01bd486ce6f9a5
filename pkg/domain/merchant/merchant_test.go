package merchant_test

import (
	"testing"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanRequestProduction(t *testing.T) {
	tests := []struct {
		kyc   merchant.KYCStatus
		state merchant.ProductionState
		want  bool
	}{
		{merchant.KYCApproved, merchant.ProductionNotRequested, true},
		{merchant.KYCApproved, merchant.ProductionPendingApproval, false},
		{merchant.KYCApproved, merchant.ProductionActive, false},
		{merchant.KYCPending, merchant.ProductionNotRequested, false},
		{merchant.KYCRejected, merchant.ProductionNotRequested, false},
		{merchant.KYCNotSubmitted, merchant.ProductionNotRequested, false},
	}
	for _, tc := range tests {
		m := merchant.Merchant{KYCStatus: tc.kyc, ProductionState: tc.state}
		assert.Equal(t, tc.want, m.CanRequestProduction(), "%s/%s", tc.kyc, tc.state)
	}
}

func TestCheckSubmit(t *testing.T) {
	assert.ErrorIs(t, merchant.CheckSubmit(0), merchant.ErrNoDocuments)
	assert.ErrorIs(t, merchant.CheckSubmit(-1), merchant.ErrNoDocuments)
	assert.NoError(t, merchant.CheckSubmit(1))
}

func TestAdminActions(t *testing.T) {
	pending := merchant.Merchant{KYCStatus: merchant.KYCPending, ProductionState: merchant.ProductionNotRequested}
	assert.Equal(t, []merchant.Action{merchant.ActionApproveKYB, merchant.ActionRejectKYB}, pending.AdminActions())

	live := merchant.Merchant{KYCStatus: merchant.KYCApproved, ProductionState: merchant.ProductionActive}
	assert.Equal(t, []merchant.Action{merchant.ActionSuspendProduction}, live.AdminActions())

	waiting := merchant.Merchant{KYCStatus: merchant.KYCApproved, ProductionState: merchant.ProductionPendingApproval}
	assert.Equal(t, []merchant.Action{merchant.ActionApproveProduction}, waiting.AdminActions())

	assert.Empty(t, merchant.Merchant{KYCStatus: merchant.KYCNotSubmitted, ProductionState: merchant.ProductionNotRequested}.AdminActions())
}

func TestNormalizeDomain(t *testing.T) {
	valid := map[string]string{
		"Shop.Example.com": "shop.example.com",
		" example.org. ":   "example.org",
		"*.payments.cm":    "*.payments.cm",
		"my-shop.co.uk":    "my-shop.co.uk",
	}
	for in, want := range valid {
		got, err := merchant.NormalizeDomain(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "localhost", "https://example.com", "example.com:443", "-bad.com", "ex_ample.com", "a..b"} {
		_, err := merchant.NormalizeDomain(in)
		assert.ErrorIs(t, err, merchant.ErrInvalidDomain, in)
	}
}

func TestNormalizeIP(t *testing.T) {
	got, err := merchant.NormalizeIP("10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", got)

	got, err = merchant.NormalizeIP("192.168.1.77/24")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.0/24", got)

	got, err = merchant.NormalizeIP("2001:db8::1")
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", got)

	for _, in := range []string{"", "300.1.1.1", "10.0.0.0/33", "example.com"} {
		_, err := merchant.NormalizeIP(in)
		assert.ErrorIs(t, err, merchant.ErrInvalidIP, in)
	}
}

func TestDocumentTypeValid(t *testing.T) {
	assert.True(t, merchant.DocTaxCertificate.Valid())
	assert.False(t, merchant.DocumentType("SELFIE").Valid())
}

func TestCreateInputValidate(t *testing.T) {
	valid := merchant.CreateInput{
		BusinessName: "Acme Foods",
		Email:        "ops@acme.cm",
		Phone:        "+237600000000",
		BusinessType: "RETAIL",
		Country:      "CM",
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Email = "not-an-email"
	bad.BusinessName = ""
	err := bad.Validate()
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "businessName is required")
	assert.Contains(t, err.Error(), "email must be a valid email")

	bad = valid
	bad.Country = "CMR"
	assert.ErrorIs(t, bad.Validate(), domain.ErrValidation)
}
