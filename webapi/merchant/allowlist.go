package merchant

import (
	"github.com/amirasaad/payconsole/pkg/service/merchants"
	"github.com/amirasaad/payconsole/webapi/common"
	"github.com/gofiber/fiber/v2"
)

type DomainRequest struct {
	Domain string `json:"domain" validate:"required"`
}

type IPRequest struct {
	IPAddress string `json:"ipAddress" validate:"required"`
	Label     string `json:"label" validate:"max=64"`
}

func Domains(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.Domains(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load domains", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", list)
	}
}

func AddDomain(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[DomainRequest](c)
		if in == nil {
			return err
		}
		d, err := svc.AddDomain(c.UserContext(), c.Params("id"), in.Domain)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to add domain", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Domain added", d)
	}
}

func RemoveDomain(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.RemoveDomain(c.UserContext(), c.Params("id"), c.Params("domainId")); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to remove domain", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Domain removed", nil)
	}
}

func IPs(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.IPs(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load IP allowlist", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", list)
	}
}

func AddIP(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[IPRequest](c)
		if in == nil {
			return err
		}
		ip, err := svc.AddIP(c.UserContext(), c.Params("id"), in.IPAddress, in.Label)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to add IP address", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "IP address added", ip)
	}
}

func RemoveIP(svc *merchants.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.RemoveIP(c.UserContext(), c.Params("id"), c.Params("ipId")); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to remove IP address", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "IP address removed", nil)
	}
}
