package gintool

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_evaluator/constants"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/web/jwt"
)

// GinContextToLoggerContext 将 Gin 上下文转换为携带日志字段的 Logger 上下文
func GinContextToLoggerContext(c *gin.Context) context.Context {
	baseCtx := c.Request.Context()

	fields := make([]logger.Field, 0, 2)
	if requestID := c.GetHeader(constants.HeaderRequestIDKey); requestID != "" {
		fields = append(fields, logger.String("RequestID", requestID))
	}
	if uc, err := jwt.UserClaimsFromContext(c); err == nil {
		fields = append(fields, logger.Uint64("UserID", uc.UserId))
	}

	return logger.ContextWithFields(baseCtx, fields...)
}
