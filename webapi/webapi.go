// Package webapi is the console's backend-for-frontend. Each screen family
// lives in its own sub-package:
//   - admin: dashboard, transactions, fees, merchant review, audit log
//   - merchant: onboarding, KYB, go-live, allowlists, API keys
//   - wallet: balance and movements
//   - reports: generation, download, schedules
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/payconsole/pkg/app"
	adminweb "github.com/amirasaad/payconsole/webapi/admin"
	"github.com/amirasaad/payconsole/webapi/common"
	merchantweb "github.com/amirasaad/payconsole/webapi/merchant"
	reportsweb "github.com/amirasaad/payconsole/webapi/reports"
	walletweb "github.com/amirasaad/payconsole/webapi/wallet"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp builds the Fiber app over the console services.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		AppName:   "payconsole",
		BodyLimit: 12 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	// Rate limit per client IP, honouring X-Forwarded-For and X-Real-IP
	// when behind a proxy.
	limit := limiter.Config{
		KeyGenerator: clientIP,
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}
	if rl := a.Config.RateLimit; rl != nil {
		limit.Max = rl.MaxRequests
		limit.Expiration = rl.Window
	}
	fiberApp.Use(limiter.New(limit))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("payconsole is running")
	})
	if a.Deps.Metrics != nil {
		fiberApp.Get("/metrics", adaptor.HTTPHandler(a.Deps.Metrics.Handler()))
	}

	adminweb.Routes(fiberApp, a.Admin, a.Audit, a.Config)
	merchantweb.Routes(fiberApp, a.Merchants, a.Config)
	walletweb.Routes(fiberApp, a.Wallet, a.Config)
	reportsweb.Routes(fiberApp, a.Reports, a.Config)
	return fiberApp
}

func clientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
