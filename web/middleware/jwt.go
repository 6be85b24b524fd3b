package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/to404hanga/online_judge_evaluator/constants"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	ojjwt "github.com/to404hanga/online_judge_evaluator/web/jwt"
)

type JWTMiddlewareBuilder struct {
	ojjwt.Handler
	log         logger.Logger
	ignorePaths []string
}

func NewJWTMiddlewareBuilder(handler ojjwt.Handler, log logger.Logger, ignorePaths []string) *JWTMiddlewareBuilder {
	return &JWTMiddlewareBuilder{
		Handler:     handler,
		log:         log,
		ignorePaths: ignorePaths,
	}
}

// CheckLogin 校验登录态并将用户信息写入上下文
func (m *JWTMiddlewareBuilder) CheckLogin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		for _, p := range m.ignorePaths {
			if strings.HasPrefix(path, p) {
				ctx.Next()
				return
			}
		}

		var uc ojjwt.UserClaims
		token, err := jwt.ParseWithClaims(m.ExtractToken(ctx), &uc, func(t *jwt.Token) (any, error) {
			return m.JwtKey(), nil
		})
		if err != nil || token == nil || !token.Valid {
			m.log.ErrorContext(ctx, "CheckLogin failed",
				logger.Error(err),
				logger.Bool("token==nil", token == nil),
			)
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if err = m.CheckSession(ctx, uc.Ssid); err != nil {
			m.log.ErrorContext(ctx, "CheckLogin failed", logger.Error(err))
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Set(constants.ContextUserClaimsKey, uc)
		ctx.Next()
	}
}
