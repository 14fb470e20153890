// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"strings"

	"llm-chat-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// OwnerLocal is the Fiber local holding the authenticated owner identity.
const OwnerLocal = "owner"

// JwtMiddleware verifies an HS256 bearer token and stores the owner identity: the
// email claim, falling back to sub.
func JwtMiddleware(secret string) fiber.Handler {
	key := []byte(secret)

	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return apperror.WithMessage(apperror.ErrUnauthorized, "missing token")
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return apperror.WithMessage(apperror.ErrUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return apperror.WithMessage(apperror.ErrUnauthorized, "invalid claims")
		}

		owner := ownerFromClaims(claims)
		if owner == "" {
			return apperror.WithMessage(apperror.ErrUnauthorized, "token carries no identity")
		}

		ctx.Locals(OwnerLocal, owner)
		return ctx.Next()
	}
}

func ownerFromClaims(claims jwt.MapClaims) string {
	if email, ok := claims["email"].(string); ok && strings.TrimSpace(email) != "" {
		return strings.TrimSpace(email)
	}
	if sub, err := claims.GetSubject(); err == nil {
		return strings.TrimSpace(sub)
	}
	return ""
}

// Owner returns the identity stored by JwtMiddleware.
func Owner(ctx *fiber.Ctx) string {
	owner, _ := ctx.Locals(OwnerLocal).(string)
	return owner
}
