// Package admin exposes the platform administration screens.
package admin

import (
	"slices"
	"strings"

	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/pkg/domain/fee"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/domain/transaction"
	"github.com/amirasaad/payconsole/pkg/middleware"
	"github.com/amirasaad/payconsole/pkg/repository"
	adminsvc "github.com/amirasaad/payconsole/pkg/service/admin"
	auditsvc "github.com/amirasaad/payconsole/pkg/service/audit"
	"github.com/amirasaad/payconsole/pkg/ui/confirm"
	"github.com/amirasaad/payconsole/pkg/ui/listview"
	"github.com/amirasaad/payconsole/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers /api/admin. Every route needs an admin token.
func Routes(app *fiber.App, svc *adminsvc.Service, audit *auditsvc.Service, cfg *config.App) {
	g := app.Group("/api/admin",
		middleware.JwtProtected(cfg.Auth.Jwt),
		middleware.RequireRole(middleware.RoleAdmin),
	)

	g.Get("/dashboard", Dashboard(svc))
	g.Get("/merchant-users", MerchantUsers(svc))
	g.Get("/transactions", Transactions(svc))

	g.Get("/fees", FeePage(svc))
	g.Get("/fee-versions", FeeVersions(svc))
	g.Post("/fee-versions", CreateFeeVersion(svc))
	g.Post("/fee-versions/:id/activate", ActivateFeeVersion(svc))
	g.Get("/fee-rules", FeeRules(svc))
	g.Post("/fee-rules", CreateFeeRule(svc))
	g.Patch("/fee-rules/:id", UpdateFeeRule(svc))
	g.Post("/fee-rules/:id/activate", ActivateFeeRule(svc))
	g.Post("/fee-rules/:id/deactivate", DeactivateFeeRule(svc))
	g.Get("/fee-rules/:id/tiers", FeeTiers(svc))
	g.Post("/fee-rules/:id/tiers", CreateFeeTier(svc))
	g.Patch("/fee-rules/:id/tiers/:tierId", UpdateFeeTier(svc))
	g.Get("/fee-overrides", Overrides(svc))
	g.Post("/fee-overrides", CreateOverride(svc))
	g.Patch("/fee-overrides/:id", UpdateOverride(svc))
	g.Post("/fee-overrides/:id/deactivate", DeactivateOverride(svc))
	g.Get("/wallet-fee-settings", WalletFeeSettings(svc))
	g.Patch("/wallet-fee-settings", UpdateWalletFeeSettings(svc))

	g.Get("/merchants", Merchants(svc))
	g.Get("/merchants/:id", Merchant(svc))
	g.Get("/kyb-submissions", KYBSubmissions(svc))
	g.Post("/merchants/:id/kyb/approve", Review(svc, merchant.ActionApproveKYB))
	g.Post("/merchants/:id/kyb/reject", RejectKYB(svc))
	g.Post("/merchants/:id/production/approve", Review(svc, merchant.ActionApproveProduction))
	g.Post("/merchants/:id/production/suspend", Review(svc, merchant.ActionSuspendProduction))

	if audit != nil {
		g.Get("/audit", AuditLog(audit))
	}
}

func Dashboard(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := svc.Dashboard(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load dashboard", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", d)
	}
}

// MerchantUsers returns one page of merchant users. The backend sends the
// whole list, so search, role and paging are applied here.
func MerchantUsers(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.MerchantUsers(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load merchant users", err)
		}
		users = listview.Search(users, c.Query("search"), merchant.UserSearchFields)
		users = listview.Filter(users, listview.Equals(c.Query("role"), func(u merchant.User) string { return u.Role }))
		page := listview.Paginate(users, common.QueryInt(c, "offset", 0), common.QueryInt(c, "limit", 20))
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", page)
	}
}

// Transactions returns one backend page. search filters that page by
// reference, merchant, gateway or phone number.
func Transactions(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f transaction.Filter
		if err := c.QueryParser(&f); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid filter", err, "Query parameters could not be parsed", fiber.StatusBadRequest)
		}
		page, err := svc.Transactions(c.UserContext(), f)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load transactions", err)
		}
		if search := c.Query("search"); search != "" {
			page.Items = listview.Search(page.Items, search, transaction.SearchFields)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", page)
	}
}

// FeePage loads one tab of the fee management screen, versions by default.
func FeePage(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var opts adminsvc.FeePageOptions
		_ = c.QueryParser(&opts.Rules)
		_ = c.QueryParser(&opts.Overrides)
		page := svc.FeePage(opts)

		tab := c.Query("tab", adminsvc.TabVersions)
		if !slices.Contains(page.Names(), tab) {
			return common.ProblemDetailsJSON(c, "Unknown tab", nil,
				"tab must be one of "+strings.Join(page.Names(), ", "), fiber.StatusBadRequest)
		}
		data, err := page.Switch(c.UserContext(), tab)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load fees", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", fiber.Map{
			"tab":  tab,
			"tabs": page.Names(),
			"data": data,
		})
	}
}

func FeeVersions(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		versions, err := svc.FeeVersions(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load fee versions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", versions)
	}
}

func CreateFeeVersion(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in fee.CreateVersionInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		v, err := svc.CreateFeeVersion(c.UserContext(), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create fee version", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Fee version created", v)
	}
}

// ActivateFeeVersion follows the same ?confirm protocol as ActivateFeeRule.
func ActivateFeeVersion(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		id := c.Params("id")
		switch c.Query("confirm") {
		case "true":
			v, err := svc.ActivateFeeVersion(ctx, id, confirm.Always)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Failed to activate fee version", err)
			}
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Fee version activated", v)
		case "false":
			_, err := svc.ActivateFeeVersion(ctx, id, confirm.Never)
			return common.ProblemDetailsJSON(c, "Activation cancelled", err)
		default:
			v, versions, err := svc.FeeVersion(ctx, id)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Failed to load fee version", err)
			}
			p := adminsvc.VersionActivationPrompt(v, versions)
			return common.ProblemDetailsJSON(c, "Confirmation required", nil,
				p.Message, fiber.StatusConflict, fiber.Map{"prompt": p})
		}
	}
}

// FeeRules returns the rules and the tuples with more than one active rule.
func FeeRules(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f fee.RuleFilter
		if err := c.QueryParser(&f); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid filter", err, "Query parameters could not be parsed", fiber.StatusBadRequest)
		}
		view, err := svc.FeeRulesView(c.UserContext(), f)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load fee rules", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", view)
	}
}

func CreateFeeRule(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in fee.CreateRuleInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		r, err := svc.CreateFeeRule(c.UserContext(), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create fee rule", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Fee rule created", r)
	}
}

func UpdateFeeRule(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in fee.UpdateRuleInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		r, err := svc.UpdateFeeRule(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update fee rule", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Fee rule updated", r)
	}
}

// ActivateFeeRule needs ?confirm=true. Without it nothing is sent and the
// answer is 409 carrying the confirmation prompt; ?confirm=false records
// the operator's refusal.
func ActivateFeeRule(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		id := c.Params("id")
		switch c.Query("confirm") {
		case "true":
			r, err := svc.ActivateFeeRuleByID(ctx, id, confirm.Always)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Failed to activate fee rule", err)
			}
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Fee rule activated", r)
		case "false":
			_, err := svc.ActivateFeeRuleByID(ctx, id, confirm.Never)
			return common.ProblemDetailsJSON(c, "Activation cancelled", err)
		default:
			r, err := svc.FeeRule(ctx, id)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Failed to load fee rule", err)
			}
			p := adminsvc.ActivationPrompt(r)
			return common.ProblemDetailsJSON(c, "Confirmation required", nil,
				p.Message, fiber.StatusConflict, fiber.Map{"prompt": p})
		}
	}
}

func DeactivateFeeRule(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.DeactivateFeeRule(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to deactivate fee rule", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Fee rule deactivated", r)
	}
}

func FeeTiers(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tiers, err := svc.FeeTiers(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load fee tiers", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", tiers)
	}
}

func CreateFeeTier(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in fee.TierInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		t, err := svc.CreateFeeTier(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create fee tier", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Fee tier created", t)
	}
}

func UpdateFeeTier(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in fee.TierInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		t, err := svc.UpdateFeeTier(c.UserContext(), c.Params("id"), c.Params("tierId"), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update fee tier", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Fee tier updated", t)
	}
}

func Overrides(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f fee.OverrideFilter
		if err := c.QueryParser(&f); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid filter", err, "Query parameters could not be parsed", fiber.StatusBadRequest)
		}
		overrides, err := svc.Overrides(c.UserContext(), f)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load fee overrides", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", overrides)
	}
}

func CreateOverride(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in fee.CreateOverrideInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		o, err := svc.CreateOverride(c.UserContext(), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create fee override", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Fee override created", o)
	}
}

func UpdateOverride(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in fee.UpdateOverrideInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		o, err := svc.UpdateOverride(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update fee override", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Fee override updated", o)
	}
}

func DeactivateOverride(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.DeactivateOverride(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to deactivate fee override", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Fee override deactivated", o)
	}
}

func badBody(c *fiber.Ctx, err error) error {
	return common.ProblemDetailsJSON(c, "Invalid request body", err, "Request body could not be parsed", fiber.StatusBadRequest)
}

// AuditLog lists recorded console actions, newest first.
func AuditLog(audit *auditsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := repository.AuditFilter{
			Action:   c.Query("action"),
			Actor:    c.Query("actor"),
			Resource: c.Query("resource"),
			Limit:    common.QueryInt(c, "limit", 0),
		}
		entries, err := audit.List(c.UserContext(), f)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load audit log", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", entries)
	}
}
