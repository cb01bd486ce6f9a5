package merchants

import (
	"context"
	"io"
	"net/url"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/domain/dashboard"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
)

// API calls the merchant endpoints of the backend.
type API struct {
	c *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API { return &API{c: c} }

func merchantPath(id string, rest ...string) string {
	p := "/merchant/v1/merchants/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (a *API) Create(ctx context.Context, in merchant.CreateInput) (merchant.Merchant, error) {
	var out merchant.Merchant
	err := a.c.Post(ctx, "/merchant/v1/merchants", in, &out)
	return out, err
}

func (a *API) List(ctx context.Context) ([]merchant.Merchant, error) {
	var out []merchant.Merchant
	err := a.c.Get(ctx, "/merchant/v1/merchants", nil, &out)
	return out, err
}

func (a *API) First(ctx context.Context) (merchant.Merchant, error) {
	var out merchant.Merchant
	err := a.c.Get(ctx, "/merchant/v1/merchants/first", nil, &out)
	return out, err
}

func (a *API) Get(ctx context.Context, id string) (merchant.Merchant, error) {
	var out merchant.Merchant
	err := a.c.Get(ctx, merchantPath(id), nil, &out)
	return out, err
}

// KYB

func (a *API) Documents(ctx context.Context, id string) ([]merchant.Document, error) {
	var out []merchant.Document
	err := a.c.Get(ctx, merchantPath(id, "kyb", "documents"), nil, &out)
	return out, err
}

func (a *API) UploadDocument(
	ctx context.Context,
	id string,
	docType merchant.DocumentType,
	filename string,
	content io.Reader,
) (merchant.Document, error) {
	var out merchant.Document
	err := a.c.Upload(ctx, merchantPath(id, "kyb", "documents"), "file", filename, content,
		map[string]string{"documentType": string(docType)}, &out)
	return out, err
}

func (a *API) DeleteDocument(ctx context.Context, id, docID string) error {
	return a.c.Delete(ctx, merchantPath(id, "kyb", "documents", url.PathEscape(docID)), nil)
}

func (a *API) SubmitKYB(ctx context.Context, id string) (merchant.KYBStatus, error) {
	var out merchant.KYBStatus
	err := a.c.Post(ctx, merchantPath(id, "kyb", "submit"), nil, &out)
	return out, err
}

func (a *API) KYBStatus(ctx context.Context, id string) (merchant.KYBStatus, error) {
	var out merchant.KYBStatus
	err := a.c.Get(ctx, merchantPath(id, "kyb", "status"), nil, &out)
	return out, err
}

// production access

func (a *API) RequestProduction(ctx context.Context, id string, in merchant.ProductionRequest) (merchant.ProductionStatus, error) {
	var out merchant.ProductionStatus
	err := a.c.Post(ctx, merchantPath(id, "production", "request"), in, &out)
	return out, err
}

func (a *API) ProductionStatus(ctx context.Context, id string) (merchant.ProductionStatus, error) {
	var out merchant.ProductionStatus
	err := a.c.Get(ctx, merchantPath(id, "production", "status"), nil, &out)
	return out, err
}

// allowlists

func (a *API) Domains(ctx context.Context, id string) ([]merchant.Domain, error) {
	var out []merchant.Domain
	err := a.c.Get(ctx, merchantPath(id, "domains"), nil, &out)
	return out, err
}

func (a *API) AddDomain(ctx context.Context, id, domain string) (merchant.Domain, error) {
	var out merchant.Domain
	err := a.c.Post(ctx, merchantPath(id, "domains"), map[string]string{"domain": domain}, &out)
	return out, err
}

func (a *API) RemoveDomain(ctx context.Context, id, domainID string) error {
	return a.c.Delete(ctx, merchantPath(id, "domains", url.PathEscape(domainID)), nil)
}

func (a *API) IPs(ctx context.Context, id string) ([]merchant.IP, error) {
	var out []merchant.IP
	err := a.c.Get(ctx, merchantPath(id, "ips"), nil, &out)
	return out, err
}

func (a *API) AddIP(ctx context.Context, id, ip, label string) (merchant.IP, error) {
	var out merchant.IP
	body := map[string]string{"ipAddress": ip}
	if label != "" {
		body["label"] = label
	}
	err := a.c.Post(ctx, merchantPath(id, "ips"), body, &out)
	return out, err
}

func (a *API) RemoveIP(ctx context.Context, id, ipID string) error {
	return a.c.Delete(ctx, merchantPath(id, "ips", url.PathEscape(ipID)), nil)
}

// API keys

func (a *API) RegenerateSandboxKey(ctx context.Context, id string) (merchant.APIKeys, error) {
	var out merchant.APIKeys
	err := a.c.Post(ctx, merchantPath(id, "api-keys", "sandbox", "regenerate"), nil, &out)
	return out, err
}

// dashboard

func (a *API) Stats(ctx context.Context) (dashboard.MerchantStats, error) {
	var out dashboard.MerchantStats
	err := a.c.Get(ctx, "/merchant/v1/dashboard/stats", nil, &out)
	return out, err
}

func (a *API) RecentTransactions(ctx context.Context, limit int) (dashboard.RecentTransactions, error) {
	var out dashboard.RecentTransactions
	err := a.c.Get(ctx, "/merchant/v1/dashboard/recent-transactions", apiclient.Values("limit", limit), &out)
	return out, err
}
