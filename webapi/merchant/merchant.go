// Package merchant exposes the merchant console: onboarding, KYB, go-live
// requests, allowlists, API keys and the merchant dashboard.
package merchant

import (
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/middleware"
	"github.com/amirasaad/payconsole/pkg/service/merchants"
	"github.com/amirasaad/payconsole/pkg/ui/confirm"
	"github.com/amirasaad/payconsole/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, svc *merchants.Service, cfg *config.App) {
	g := app.Group("/api/merchant",
		middleware.JwtProtected(cfg.Auth.Jwt),
		middleware.RequireRole(middleware.RoleMerchant, middleware.RoleAdmin),
	)

	g.Get("/dashboard", Stats(svc))
	g.Get("/transactions/recent", RecentTransactions(svc))

	g.Post("/merchants", Create(svc))
	g.Get("/merchants", List(svc))
	g.Get("/merchants/first", First(svc))
	g.Get("/merchants/:id", Get(svc))

	g.Get("/merchants/:id/documents", Documents(svc))
	g.Post("/merchants/:id/documents", UploadDocument(svc))
	g.Delete("/merchants/:id/documents/:docId", DeleteDocument(svc))
	g.Post("/merchants/:id/kyb/submit", SubmitKYB(svc))
	g.Get("/merchants/:id/kyb", KYBStatus(svc))

	g.Post("/merchants/:id/production", RequestProduction(svc))
	g.Get("/merchants/:id/production", ProductionStatus(svc))

	g.Get("/merchants/:id/domains", Domains(svc))
	g.Post("/merchants/:id/domains", AddDomain(svc))
	g.Delete("/merchants/:id/domains/:domainId", RemoveDomain(svc))
	g.Get("/merchants/:id/ips", IPs(svc))
	g.Post("/merchants/:id/ips", AddIP(svc))
	g.Delete("/merchants/:id/ips/:ipId", RemoveIP(svc))

	g.Post("/merchants/:id/api-keys/sandbox/regenerate", RegenerateSandboxKey(svc))
}

func Stats(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.Stats(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load dashboard", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", s)
	}
}

func RecentTransactions(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recent, err := svc.RecentTransactions(c.UserContext(), common.QueryInt(c, "limit", merchants.DefaultRecentLimit))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load recent transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", recent)
	}
}

func Create(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[merchant.CreateInput](c)
		if in == nil {
			return err
		}
		m, err := svc.Create(c.UserContext(), *in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create merchant", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Merchant created", m)
	}
}

func List(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load merchants", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", list)
	}
}

// First returns the caller's first merchant, 404 when there is none yet.
func First(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := svc.First(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "No merchant yet", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", m)
	}
}

func Get(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load merchant", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", m)
	}
}

func Documents(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.Documents(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load documents", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", docs)
	}
}

// UploadDocument takes a multipart form with "file" and "documentType".
func UploadDocument(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid upload", err, "A file is required", fiber.StatusBadRequest)
		}
		f, err := fh.Open()
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid upload", err, "The file could not be read", fiber.StatusBadRequest)
		}
		defer func() { _ = f.Close() }()

		docType := merchant.DocumentType(c.FormValue("documentType"))
		doc, err := svc.UploadDocument(c.UserContext(), c.Params("id"), docType, fh.Filename, f)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to upload document", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Document uploaded", doc)
	}
}

func DeleteDocument(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteDocument(c.UserContext(), c.Params("id"), c.Params("docId")); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete document", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Document deleted", nil)
	}
}

func SubmitKYB(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.SubmitKYB(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to submit KYB", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "KYB submitted for review", st)
	}
}

func KYBStatus(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.KYBStatus(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load KYB status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", st)
	}
}

func RequestProduction(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in merchant.ProductionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return common.ProblemDetailsJSON(c, "Invalid request body", err, "Request body could not be parsed", fiber.StatusBadRequest)
			}
		}
		st, err := svc.RequestProduction(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to request production access", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Production access requested", st)
	}
}

func ProductionStatus(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.ProductionStatus(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load production status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", st)
	}
}

// RegenerateSandboxKey follows the fee activation rule: ?confirm=true
// regenerates, no confirm answers 409 with the prompt.
func RegenerateSandboxKey(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		id := c.Params("id")
		switch c.Query("confirm") {
		case "true":
			keys, err := svc.RegenerateSandboxKey(ctx, id, confirm.Always)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Failed to regenerate key", err)
			}
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Sandbox key regenerated", keys)
		case "false":
			_, err := svc.RegenerateSandboxKey(ctx, id, confirm.Never)
			return common.ProblemDetailsJSON(c, "Regeneration cancelled", err)
		default:
			m, err := svc.Get(ctx, id)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Failed to load merchant", err)
			}
			p := merchants.RegeneratePrompt(m)
			return common.ProblemDetailsJSON(c, "Confirmation required", nil,
				p.Message, fiber.StatusConflict, fiber.Map{"prompt": p})
		}
	}
}
