package reports

import (
	"context"
	"net/url"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/domain/report"
)

// API calls the report endpoints of the backend.
type API struct {
	c *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API { return &API{c: c} }

func (a *API) Generate(ctx context.Context, in report.GenerateInput, requestID string) (report.Report, error) {
	var out report.Report
	err := a.c.Post(ctx, "/admin/v1/reports", in, &out, apiclient.IdempotencyKey(requestID))
	return out, err
}

// Filter narrows GET /admin/v1/reports.
type Filter struct {
	Type       report.Type
	Status     report.Status
	MerchantID string
	Limit      int
}

func (a *API) List(ctx context.Context, f Filter) ([]report.Report, error) {
	var out []report.Report
	q := apiclient.Values("type", string(f.Type), "status", string(f.Status), "merchantId", f.MerchantID, "limit", f.Limit)
	err := a.c.Get(ctx, "/admin/v1/reports", q, &out)
	return out, err
}

func (a *API) Get(ctx context.Context, id string) (report.Report, error) {
	var out report.Report
	err := a.c.Get(ctx, "/admin/v1/reports/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (a *API) Download(ctx context.Context, id string) (*apiclient.File, error) {
	return a.c.Download(ctx, "/admin/v1/reports/"+url.PathEscape(id)+"/download", nil)
}
