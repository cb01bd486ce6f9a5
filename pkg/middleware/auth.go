// Package middleware protects the console's HTTP surface.
package middleware

import (
	"errors"
	"strings"

	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/pkg/service"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
)

// Identity is the authenticated caller.
type Identity struct {
	Subject string
	Role    string
	Token   string
}

const identityKey = "identity"

// JwtProtected validates the bearer token against the shared secret. The
// raw token is forwarded to the backend on every call the request makes,
// and the subject becomes the audit actor.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	secret := ""
	if cfg != nil {
		secret = cfg.Secret
	}
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(secret)},
		ErrorHandler:   jwtError,
		SuccessHandler: forwardIdentity,
	})
}

func forwardIdentity(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return jwtError(c, jwtware.ErrJWTMissingOrMalformed)
	}
	id := Identity{Token: token.Raw}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		id.Subject, _ = claims["sub"].(string)
		id.Role, _ = claims["role"].(string)
	}
	c.Locals(identityKey, id)

	ctx := apiclient.WithToken(c.UserContext(), id.Token)
	ctx = service.WithActor(ctx, id.Subject)
	c.SetUserContext(ctx)
	return c.Next()
}

// CurrentIdentity returns the caller set by JwtProtected.
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(identityKey).(Identity)
	return id, ok
}

// RequireRole rejects callers whose role claim is not one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized", "authentication required")
		}
		for _, r := range roles {
			if strings.EqualFold(id.Role, r) {
				return c.Next()
			}
		}
		return errorJSON(c, fiber.StatusForbidden, "Forbidden", "this action requires the "+strings.Join(roles, " or ")+" role")
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return errorJSON(c, fiber.StatusBadRequest, "Bad Request", "Missing or malformed JWT")
	}
	return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid or expired JWT")
}

func errorJSON(c *fiber.Ctx, status int, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(fiber.Map{
		"type":   "about:blank",
		"title":  title,
		"status": status,
		"detail": detail,
	})
}
