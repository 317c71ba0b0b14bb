package serverutils

import (
	"strings"

	"chromir-be/pkg/session"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// BearerToken reads the token from the Authorization header, then the token query param.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

// ResolveSession verifies the token and checks it has not been signed out.
func ResolveSession(ctx *fiber.Ctx, issuer *session.TokenIssuer, denylist *session.Denylist) (*session.Claims, error) {
	tokenStr := BearerToken(ctx)
	if tokenStr == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	claims, err := issuer.Parse(tokenStr)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	revoked, err := denylist.IsRevoked(ctx.UserContext(), claims.Session.TokenId)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Unable to verify session")
	}
	if revoked {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Session has been signed out")
	}
	return claims, nil
}

// NewJwtMiddleware protects a route group and stores the session in Locals.
func NewJwtMiddleware(issuer *session.TokenIssuer, denylist *session.Denylist) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := ResolveSession(ctx, issuer, denylist)
		if err != nil {
			code, message, _ := Classify(err)
			return ctx.Status(code).JSON(ErrorResponse(code, message))
		}

		sess := claims.Session
		SetSession(ctx, &sess)
		ctx.Locals("token_expires_at", claims.ExpiresAt)
		return ctx.Next()
	}
}

// SetSession stores sess for CurrentSession.
func SetSession(ctx *fiber.Ctx, sess *session.Session) {
	ctx.Locals(sessionKey, sess)
	ctx.Locals("user_id", sess.UserId.String())
}

// CurrentSession returns the session stored by the middleware.
func CurrentSession(ctx *fiber.Ctx) (*session.Session, error) {
	sess, ok := ctx.Locals(sessionKey).(*session.Session)
	if !ok || sess == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return sess, nil
}
