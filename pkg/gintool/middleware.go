package gintool

import (
	"github.com/gin-gonic/gin"
)

// ContextMiddleware 上下文中间件, 将请求级日志字段注入请求上下文
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(GinContextToLoggerContext(c))
	}
}
