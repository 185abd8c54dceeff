package jwt

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// LocalsUserID is the fiber.Ctx locals key holding the verified subject.
const LocalsUserID = "userId"

// NewAuthMiddleware returns a Fiber middleware guarding routes with the
// Verifier. Missing token answers 403, an invalid one 401. On success the
// subject (uuid.UUID) is stored in c.Locals(LocalsUserID).
func NewAuthMiddleware(v *Verifier, log *slog.Logger) fiber.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		subject, err := v.Verify(TokenFromHeader(c.Get(fiber.HeaderAuthorization)))
		if err != nil {
			log.InfoContext(c.UserContext(), "request rejected", "kind", "auth", "path", c.Path(), "error", err)
			if errors.Is(err, ErrMissingToken) {
				return c.Status(http.StatusForbidden).JSON(fiber.Map{"message": "access denied: token not provided"})
			}
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "access denied: invalid or expired token"})
		}
		c.Locals(LocalsUserID, subject)
		return c.Next()
	}
}
