package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"freelance-market/internal/domain"
	"freelance-market/internal/transport/http/ez"
	resp "freelance-market/internal/transport/http/response"
)

// Resolver 校验 bearer token 并返回调用方身份
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

func AuthJWT(r Resolver, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		id, err := r.Resolve(c.Request.Context(), strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrExpiredToken):
				resp.Abort(c, resp.CodeUnauthorized, "token expired")
			case errors.Is(err, domain.ErrInvalidToken):
				resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			default:
				_ = c.Error(err)
				resp.Abort(c, resp.CodeServerError, "")
			}
			return
		}
		if requireRole != "" && id.Role != requireRole {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Set(ez.KeyUserID, id.ID)
		c.Set(ez.KeyRole, id.Role)
		c.Next()
	}
}
