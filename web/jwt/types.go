package jwt

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/to404hanga/online_judge_evaluator/constants"
)

type Handler interface {
	ExtractToken(ctx *gin.Context) string
	SetLoginToken(ctx *gin.Context, userId uint64, role int8) error
	SetJWTToken(ctx *gin.Context, userId uint64, role int8, ssid string) error
	CheckSession(ctx *gin.Context, ssid string) error

	JwtKey() []byte
}

type UserClaims struct {
	jwt.RegisteredClaims
	UserId    uint64
	Role      int8
	Ssid      string
	UserAgent string
}

type RefreshUserClaims struct {
	jwt.RegisteredClaims
	UserId uint64
	Role   int8
	Ssid   string
}

// UserClaimsFromContext 从 Gin 上下文提取登录用户信息
func UserClaimsFromContext(ctx *gin.Context) (*UserClaims, error) {
	ucAny, exists := ctx.Get(constants.ContextUserClaimsKey)
	if !exists {
		return nil, fmt.Errorf("user claims not found in context")
	}
	uc, ok := ucAny.(UserClaims)
	if !ok {
		return nil, fmt.Errorf("user claims type assertion error")
	}
	return &uc, nil
}
