package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/Fababum/portfolio/dto"
	"github.com/Fababum/portfolio/shared"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// SessionValidator resolves session tokens. IsExpired tells an expired token
// apart from an unknown one so the client gets the right message.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*dto.SessionPrincipal, error)
	IsExpired(err error) bool
}

type sessionTokenBody struct {
	SessionToken string `json:"sessionToken"`
}

// ExtractSessionToken looks for the token in the Authorization header, the
// sessionToken query parameter and the JSON body, in that order.
func ExtractSessionToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	if token := c.Query("sessionToken"); token != "" {
		return token
	}

	body := c.Body()
	if len(body) == 0 || !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return ""
	}
	var parsed sessionTokenBody
	if err := shared.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.SessionToken)
}

// RequiredSession rejects requests without a valid admin session and stores
// the principal in the request locals.
func RequiredSession(sessions SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ExtractSessionToken(c)
		if token == "" {
			return shared.ErrUnauthorized("No session token provided")
		}

		principal, err := sessions.Validate(c.UserContext(), token)
		if err != nil {
			if sessions.IsExpired(err) {
				return shared.ErrUnauthorized("Session expired")
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.WithError(err).WithField("ip", shared.ClientIP(c)).Debug("Session validation failed")
			return shared.ErrUnauthorized("Invalid session token")
		}

		c.Locals(shared.AdminID, principal.AdminID)
		c.Locals(shared.AdminUsername, principal.Username)
		c.Locals(shared.SessionID, principal.SessionID)
		c.Locals(shared.SessionToken, token)
		return c.Next()
	}
}

// Principal returns the admin stored by RequiredSession.
func Principal(c *fiber.Ctx) (dto.SessionPrincipal, bool) {
	adminID, ok := c.Locals(shared.AdminID).(uint)
	if !ok {
		return dto.SessionPrincipal{}, false
	}
	username, _ := c.Locals(shared.AdminUsername).(string)
	sessionID, _ := c.Locals(shared.SessionID).(string)
	return dto.SessionPrincipal{SessionID: sessionID, AdminID: adminID, Username: username}, true
}
