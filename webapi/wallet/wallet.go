// Package wallet exposes the merchant wallet: balance, movements and the
// operation history.
package wallet

import (
	"context"

	"github.com/amirasaad/payconsole/pkg/config"
	walletdomain "github.com/amirasaad/payconsole/pkg/domain/wallet"
	"github.com/amirasaad/payconsole/pkg/middleware"
	walletsvc "github.com/amirasaad/payconsole/pkg/service/wallet"
	"github.com/amirasaad/payconsole/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, svc *walletsvc.Service, cfg *config.App) {
	g := app.Group("/api/wallet",
		middleware.JwtProtected(cfg.Auth.Jwt),
		middleware.RequireRole(middleware.RoleMerchant, middleware.RoleAdmin),
	)
	g.Get("/balance", Balance(svc))
	g.Get("/operations", Operations(svc))
	g.Post("/topup", Topup(svc))
	g.Post("/withdraw", Withdraw(svc))
}

func Balance(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.Balance(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load wallet balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", b)
	}
}

func Operations(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := walletdomain.OperationFilter{
			Limit:  common.QueryInt(c, "limit", 0),
			Offset: common.QueryInt(c, "offset", 0),
			Type:   walletdomain.OperationType(c.Query("type")),
		}
		page, err := svc.Operations(c.UserContext(), f)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load wallet operations", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", page)
	}
}

// Topup forwards the caller's Idempotency-Key header, so a client retry
// does not credit twice.
func Topup(svc *walletsvc.Service) fiber.Handler {
	return movement("Topup", "Wallet topped up", svc.Topup)
}

func Withdraw(svc *walletsvc.Service) fiber.Handler {
	return movement("Withdrawal", "Withdrawal requested", svc.Withdraw)
}

type moveFunc func(ctx context.Context, in walletdomain.MovementInput, key string) (walletdomain.Operation, error)

func movement(name, success string, move moveFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in walletdomain.MovementInput
		if err := c.BodyParser(&in); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", err, "Request body could not be parsed", fiber.StatusBadRequest)
		}
		op, err := move(c.UserContext(), in, c.Get("Idempotency-Key"))
		if err != nil {
			return common.ProblemDetailsJSON(c, name+" failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, success, op)
	}
}
