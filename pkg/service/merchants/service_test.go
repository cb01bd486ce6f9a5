package merchants_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	infraeventbus "github.com/amirasaad/payconsole/infra/eventbus"
	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/service/merchants"
	"github.com/amirasaad/payconsole/pkg/testutils"
	"github.com/amirasaad/payconsole/pkg/ui/confirm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	routeDocs     = "GET /merchant/v1/merchants/{id}/kyb/documents"
	routeUpload   = "POST /merchant/v1/merchants/{id}/kyb/documents"
	routeSubmit   = "POST /merchant/v1/merchants/{id}/kyb/submit"
	routeMerchant = "GET /merchant/v1/merchants/{id}"
	routeProdReq  = "POST /merchant/v1/merchants/{id}/production/request"
	routeAddIP    = "POST /merchant/v1/merchants/{id}/ips"
	routeDomains  = "GET /merchant/v1/merchants/{id}/domains"
	routeAddDom   = "POST /merchant/v1/merchants/{id}/domains"
	routeRegen    = "POST /merchant/v1/merchants/{id}/api-keys/sandbox/regenerate"
)

func newService(t *testing.T) (*merchants.Service, *testutils.Backend, *infraeventbus.MemoryEventBus) {
	t.Helper()
	b := testutils.NewBackend(t)
	deps, bus := testutils.Deps(t, b.URL)
	return merchants.New(deps), b, bus
}

func TestSubmitKYB_RefusedWithoutDocuments(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle(routeDocs, http.StatusOK, []merchant.Document{})
	b.Handle(routeSubmit, http.StatusOK, merchant.KYBStatus{KYCStatus: merchant.KYCPending})

	_, err := svc.SubmitKYB(context.Background(), "m1")

	require.ErrorIs(t, err, merchant.ErrNoDocuments)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, b.Count(routeSubmit))
}

func TestSubmitKYB_AfterUpload(t *testing.T) {
	svc, b, bus := newService(t)
	docs := []merchant.Document{}
	b.HandleFunc(routeDocs, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": docs})
	})
	b.HandleFunc(routeUpload, func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(f)
		doc := merchant.Document{
			ID:       "d1",
			Type:     merchant.DocumentType(r.FormValue("documentType")),
			FileName: hdr.Filename,
		}
		assert.Equal(t, "certificate", string(content))
		docs = append(docs, doc)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": doc})
	})
	b.Handle(routeSubmit, http.StatusOK, merchant.KYBStatus{MerchantID: "m1", KYCStatus: merchant.KYCPending, DocumentCount: 1})
	ctx := context.Background()

	_, err := svc.SubmitKYB(ctx, "m1")
	require.ErrorIs(t, err, merchant.ErrNoDocuments)

	doc, err := svc.UploadDocument(ctx, "m1", merchant.DocRegistrationCertificate, "/tmp/rc.pdf", strings.NewReader("certificate"))
	require.NoError(t, err)
	assert.Equal(t, "rc.pdf", doc.FileName)
	assert.Equal(t, merchant.DocRegistrationCertificate, doc.Type)

	status, err := svc.SubmitKYB(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, merchant.KYCPending, status.KYCStatus)
	assert.Equal(t, 1, b.Count(routeSubmit))
	assert.Equal(t, 2, b.Count(routeDocs))

	evt := testutils.LastAdminAction(t, bus)
	assert.Equal(t, "kyb.submit", evt.Action)
	assert.Equal(t, eventbus.OutcomeSucceeded, evt.Outcome)
}

func TestUploadDocument_UnknownType(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle(routeUpload, http.StatusCreated, merchant.Document{})

	_, err := svc.UploadDocument(context.Background(), "m1", "SELFIE", "me.jpg", strings.NewReader("x"))
	require.ErrorIs(t, err, merchant.ErrInvalidDocumentType)
	assert.Zero(t, b.Count(routeUpload))
}

func TestRequestProduction(t *testing.T) {
	tests := []struct {
		name    string
		m       merchant.Merchant
		sent    int
		wantErr error
	}{
		{
			name: "approved and not requested",
			m:    merchant.Merchant{ID: "m1", KYCStatus: merchant.KYCApproved, ProductionState: merchant.ProductionNotRequested},
			sent: 1,
		},
		{
			name:    "kyb pending",
			m:       merchant.Merchant{ID: "m1", KYCStatus: merchant.KYCPending, ProductionState: merchant.ProductionNotRequested},
			wantErr: merchant.ErrProductionNotAllowed,
		},
		{
			name:    "already pending approval",
			m:       merchant.Merchant{ID: "m1", KYCStatus: merchant.KYCApproved, ProductionState: merchant.ProductionPendingApproval},
			wantErr: merchant.ErrProductionNotAllowed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, b, _ := newService(t)
			b.Handle(routeMerchant, http.StatusOK, tt.m)
			b.Handle(routeProdReq, http.StatusOK, merchant.ProductionStatus{MerchantID: "m1", ProductionState: merchant.ProductionPendingApproval})

			_, err := svc.RequestProduction(context.Background(), "m1", merchant.ProductionRequest{UseCase: "checkout"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.sent, b.Count(routeProdReq))
		})
	}
}

func TestAllowlists(t *testing.T) {
	t.Run("domain is normalized and list refetched", func(t *testing.T) {
		svc, b, _ := newService(t)
		b.Handle(routeDomains, http.StatusOK, []merchant.Domain{})
		b.Handle(routeAddDom, http.StatusCreated, merchant.Domain{ID: "d1", Domain: "shop.example.com"})
		ctx := context.Background()

		_, err := svc.Domains(ctx, "m1")
		require.NoError(t, err)
		_, err = svc.AddDomain(ctx, "m1", "  Shop.Example.com. ")
		require.NoError(t, err)
		assert.JSONEq(t, `{"domain":"shop.example.com"}`, string(b.LastBody(routeAddDom)))

		_, err = svc.Domains(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, 2, b.Count(routeDomains))
	})

	t.Run("invalid domain", func(t *testing.T) {
		svc, b, _ := newService(t)
		b.Handle(routeAddDom, http.StatusCreated, merchant.Domain{})

		_, err := svc.AddDomain(context.Background(), "m1", "https://shop.example.com/path")
		require.ErrorIs(t, err, merchant.ErrInvalidDomain)
		assert.Zero(t, b.Count(routeAddDom))
	})

	t.Run("cidr is masked", func(t *testing.T) {
		svc, b, _ := newService(t)
		b.Handle(routeAddIP, http.StatusCreated, merchant.IP{ID: "i1"})

		_, err := svc.AddIP(context.Background(), "m1", "10.1.2.3/16", "office")
		require.NoError(t, err)
		assert.JSONEq(t, `{"ipAddress":"10.1.0.0/16","label":"office"}`, string(b.LastBody(routeAddIP)))
	})

	t.Run("invalid ip", func(t *testing.T) {
		svc, b, _ := newService(t)
		b.Handle(routeAddIP, http.StatusCreated, merchant.IP{})

		_, err := svc.AddIP(context.Background(), "m1", "300.1.1.1", "")
		require.ErrorIs(t, err, merchant.ErrInvalidIP)
		assert.Zero(t, b.Count(routeAddIP))
	})
}

func TestRegenerateSandboxKey(t *testing.T) {
	svc, b, bus := newService(t)
	b.Handle(routeMerchant, http.StatusOK, merchant.Merchant{ID: "m1", BusinessName: "Acme Foods"})
	b.Handle(routeRegen, http.StatusOK, merchant.APIKeys{SandboxAPIKey: "sk_test_new"})
	ctx := context.Background()

	rec := &confirm.Recorder{}
	_, err := svc.RegenerateSandboxKey(ctx, "m1", rec)
	require.ErrorIs(t, err, merchants.ErrRegenerateDeclined)
	assert.Zero(t, b.Count(routeRegen))
	require.Len(t, rec.Prompts, 1)
	assert.Contains(t, rec.Prompts[0].Message, "Acme Foods")
	assert.Equal(t, eventbus.OutcomeDeclined, testutils.LastAdminAction(t, bus).Outcome)

	keys, err := svc.RegenerateSandboxKey(ctx, "m1", confirm.Always)
	require.NoError(t, err)
	assert.Equal(t, "sk_test_new", keys.SandboxAPIKey)
	assert.Equal(t, "Bearer test-token", b.LastRequest(routeRegen).Header.Get("Authorization"))
}

func TestCreate_ValidatesBeforeSending(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("POST /merchant/v1/merchants", http.StatusCreated, merchant.Merchant{ID: "m1"})

	_, err := svc.Create(context.Background(), merchant.CreateInput{BusinessName: "Acme"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, b.Count("POST /merchant/v1/merchants"))
}

func TestRecentTransactions_DefaultLimit(t *testing.T) {
	svc, b, _ := newService(t)
	b.Handle("GET /merchant/v1/dashboard/recent-transactions", http.StatusOK, map[string]any{"items": []any{}})

	_, err := svc.RecentTransactions(context.Background(), 0)
	require.NoError(t, err)
	req := b.LastRequest("GET /merchant/v1/dashboard/recent-transactions")
	require.NotNil(t, req)
	assert.Equal(t, "10", req.URL.Query().Get("limit"))
}
