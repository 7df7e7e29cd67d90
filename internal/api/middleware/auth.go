package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Dreamstarlake/EduNexus/pkg/jwt"
	"github.com/Dreamstarlake/EduNexus/pkg/response"
)

// 上下文键
const (
	CtxUserID    = "user_id"
	CtxUsername  = "username"
	CtxTokenID   = "token_jti"
	CtxTokenExp  = "token_exp"
	codeAuthFail = 10002
)

// TokenChecker 查询凭证是否已吊销，由 pkg/redis.Client 实现
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证凭证。
// checker 为 nil 或查询出错时跳过黑名单检查（降级放行）。
func JWTAuth(jwtMgr *jwt.Manager, checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, codeAuthFail, "No token, authorization denied")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, codeAuthFail, "Token is not in Bearer format")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, codeAuthFail, "Token is not valid")
			c.Abort()
			return
		}

		if checker != nil {
			revoked, err := checker.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, codeAuthFail, "Token has been revoked")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}
