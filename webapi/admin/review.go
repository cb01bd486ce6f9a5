package admin

import (
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/domain/wallet"
	adminsvc "github.com/amirasaad/payconsole/pkg/service/admin"
	"github.com/amirasaad/payconsole/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Merchants(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f adminsvc.MerchantFilter
		if err := c.QueryParser(&f); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid filter", err, "Query parameters could not be parsed", fiber.StatusBadRequest)
		}
		list, err := svc.Merchants(c.UserContext(), f)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load merchants", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", list)
	}
}

// Merchant returns the merchant together with the review actions that
// apply to its current state.
func Merchant(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := svc.Merchant(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load merchant", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", fiber.Map{
			"merchant": m,
			"actions":  m.AdminActions(),
		})
	}
}

func KYBSubmissions(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := merchant.KYCStatus(c.Query("status", string(merchant.KYCPending)))
		subs, err := svc.KYBSubmissions(c.UserContext(), status)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load KYB submissions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", subs)
	}
}

var reviewMessages = map[merchant.Action]string{
	merchant.ActionApproveKYB:        "KYB approved",
	merchant.ActionRejectKYB:         "KYB rejected",
	merchant.ActionApproveProduction: "Production access approved",
	merchant.ActionSuspendProduction: "Production access suspended",
}

// Review applies action with optional notes in the body.
func Review(svc *adminsvc.Service, action merchant.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in merchant.ReviewInput
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return badBody(c, err)
			}
		}
		return review(c, svc, action, in)
	}
}

// RejectRequest is the body of a KYB rejection.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	Notes  string `json:"notes" validate:"max=2000"`
}

func RejectKYB(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[RejectRequest](c)
		if in == nil {
			return err
		}
		return review(c, svc, merchant.ActionRejectKYB, merchant.ReviewInput{Reason: in.Reason, Notes: in.Notes})
	}
}

func review(c *fiber.Ctx, svc *adminsvc.Service, action merchant.Action, in merchant.ReviewInput) error {
	m, err := svc.Review(c.UserContext(), c.Params("id"), action, in)
	if err != nil {
		return common.ProblemDetailsJSON(c, "Review failed", err)
	}
	return common.SuccessResponseJSON(c, fiber.StatusOK, reviewMessages[action], m)
}

func WalletFeeSettings(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.WalletFeeSettings(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load wallet fee settings", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "", s)
	}
}

func UpdateWalletFeeSettings(svc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in wallet.FeeSettingsUpdate
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		s, err := svc.UpdateWalletFeeSettings(c.UserContext(), in)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update wallet fee settings", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Wallet fee settings updated", s)
	}
}
