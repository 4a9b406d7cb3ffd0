package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"nexa/internal/core/apperror"
	appctx "nexa/internal/core/context"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.OwnerContext, error)
}

// Auth middleware validates JWT tokens and populates owner context.
// Every route behind it is scoped to the authenticated owner.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		owner, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithOwner(c.Request.Context(), owner)
		c.Request = c.Request.WithContext(ctx)

		c.Set("owner_id", owner.OwnerID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
