// Package reports exposes report generation, download and the console's
// report schedules.
package reports

import (
	"errors"
	"fmt"

	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/pkg/domain/report"
	"github.com/amirasaad/payconsole/pkg/middleware"
	reportsvc "github.com/amirasaad/payconsole/pkg/service/reports"
	"github.com/amirasaad/payconsole/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, svc *reportsvc.Service, cfg *config.App) {
	g := app.Group("/api/reports",
		middleware.JwtProtected(cfg.Auth.Jwt),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	g.Get("/", List(svc))
	g.Post("/", Generate(svc))
	g.Get("/schedules", Schedules(svc))
	g.Post("/schedules", CreateSchedule(svc))
	g.Post("/schedules/:id/enable", SetScheduleEnabled(svc, true))
	g.Post("/schedules/:id/disable", SetScheduleEnabled(svc, false))
	g.Delete("/schedules/:id", DeleteSchedule(svc))
	g.Get("/:id", Get(svc))
	g.Get("/:id/download", Download(svc))
}

func List(svc *reportsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := reportsvc.Filter{
			Type:       report.Type(c.Query("type")),
			Status:     report.Status(c.Query("status")),
			MerchantID: c.Query("merchantId"),
			Limit:      common.QueryInt(c, "limit", 0),
		}
		list, err := svc.List(c.UserContext(), f)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load reports", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", list)
	}
}

func Generate(svc *reportsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[report.GenerateInput](c)
		if in == nil {
			return err
		}
		r, err := svc.Generate(c.UserContext(), *in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to request report", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Report requested", r)
	}
}

func Get(svc *reportsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load report", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", r)
	}
}

// Download streams the report file as an attachment.
func Download(svc *reportsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := svc.Download(c.UserContext(), c.Params("id"))
		if errors.Is(err, report.ErrNotReady) {
			return common.ProblemDetailsJSON(c, "Report not ready", err, "The report is still being generated")
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to download report", err)
		}
		if f.ContentType != "" {
			c.Set(fiber.HeaderContentType, f.ContentType)
		}
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", f.Name))
		return c.Status(fiber.StatusOK).Send(f.Data)
	}
}

func Schedules(svc *reportsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.Schedules(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load schedules", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", list)
	}
}

func CreateSchedule(svc *reportsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[report.ScheduleInput](c)
		if in == nil {
			return err
		}
		s, err := svc.CreateSchedule(c.UserContext(), *in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create schedule", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Schedule created", s)
	}
}

func SetScheduleEnabled(svc *reportsvc.Service, enabled bool) fiber.Handler {
	msg := "Schedule paused"
	if enabled {
		msg = "Schedule resumed"
	}
	return func(c *fiber.Ctx) error {
		s, err := svc.SetScheduleEnabled(c.UserContext(), c.Params("id"), enabled)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update schedule", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, msg, s)
	}
}

func DeleteSchedule(svc *reportsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteSchedule(c.UserContext(), c.Params("id")); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete schedule", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Schedule deleted", nil)
	}
}
