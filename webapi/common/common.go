// Package common holds what every console route shares: the success
// envelope, RFC 9457 problem details and request binding.
package common

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/ui/notify"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response is the success envelope. Message carries the success toast.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457. Detail carries the error toast.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// SuccessResponseJSON writes the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes a problem for err. Optional args override the
// detail (a string), the status (an int) or add field errors (anything else).
// Without overrides the status comes from ErrorToStatusCode and the detail
// follows the toast rule with title as the fallback text.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   ErrorToStatusCode(err),
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = notify.ErrorText(err, title)
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			pd.Detail = v
		case int:
			pd.Status = v
		case nil:
		default:
			pd.Errors = v
		}
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(pd.Status).JSON(pd)
}

// ErrorToStatusCode maps domain and backend errors to HTTP status codes.
// Backend 4xx statuses pass through; backend 5xx and transport failures
// become 502.
func ErrorToStatusCode(err error) int {
	var apiErr *apiclient.APIError
	var fiberErr *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusInternalServerError
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return fiber.StatusBadGateway
	case errors.Is(err, apiclient.ErrTransport):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrCancelled), errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// BindAndValidate parses the JSON body into T and validates it. On failure
// the problem response is already written and the returned pointer is nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, "Request body could not be parsed", fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
			}
			return nil, ProblemDetailsJSON(c, "Validation failed", err, describe(fields), fiber.StatusBadRequest, fields)
		}
		return nil, ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest)
	}
	return &input, nil
}

func describe(fields []FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f.Rule {
		case "required":
			parts = append(parts, f.Field+" is required")
		case "oneof":
			parts = append(parts, f.Field+" must be one of "+f.Param)
		default:
			parts = append(parts, f.Field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

// QueryInt reads a non-negative integer query parameter, falling back to def.
func QueryInt(c *fiber.Ctx, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
