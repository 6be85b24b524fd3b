package gintool

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/web/jwt"
)

// ParamPtr 约束参数以指针形式实现公共参数注入, 包装器负责分配零值实例
type ParamPtr[T any] interface {
	*T
	model.CommonParamInterface
}

// WrapHandler 包装需要登录态的处理函数, 依次绑定 URI/Query/JSON 并注入操作人
func WrapHandler[T any, PT ParamPtr[T]](h func(c *gin.Context, pType PT), log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param := PT(new(T))
		// 1) URI
		if len(c.Params) > 0 {
			if err := c.ShouldBindUri(param); err != nil {
				GinResponse(c, &Response{
					Code:    http.StatusBadRequest,
					Message: err.Error(),
				})
				log.ErrorContext(c.Request.Context(), "WrapHandler bind uri failed", logger.Error(err))
				return
			}
		}

		// 2) Query/Form
		if c.Request.URL != nil && c.Request.URL.RawQuery != "" {
			if err := c.ShouldBindQuery(param); err != nil {
				GinResponse(c, &Response{
					Code:    http.StatusBadRequest,
					Message: err.Error(),
				})
				log.ErrorContext(c.Request.Context(), "WrapHandler bind query failed", logger.Error(err))
				return
			}
		}

		// 3) JSON
		if c.Request.Method != http.MethodGet && c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(param); err != nil {
				GinResponse(c, &Response{
					Code:    http.StatusBadRequest,
					Message: err.Error(),
				})
				log.ErrorContext(c.Request.Context(), "WrapHandler bind json failed", logger.Error(err))
				return
			}
		}

		uc, err := jwt.UserClaimsFromContext(c)
		if err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusUnauthorized,
				Message: "user claims not found",
			})
			log.ErrorContext(c.Request.Context(), "WrapHandler extract user claims failed", logger.Error(err))
			return
		}
		param.SetOperator(uc.UserId)
		param.SetRole(uc.Role)

		h(c, param)
	}
}

// WrapWithoutBodyHandler 包装不绑定请求体的处理函数
func WrapWithoutBodyHandler[T any, PT ParamPtr[T]](h func(c *gin.Context, pType PT), log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param := PT(new(T))

		uc, err := jwt.UserClaimsFromContext(c)
		if err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusUnauthorized,
				Message: "user claims not found",
			})
			log.ErrorContext(c.Request.Context(), "WrapWithoutBodyHandler extract user claims failed", logger.Error(err))
			return
		}
		param.SetOperator(uc.UserId)
		param.SetRole(uc.Role)

		h(c, param)
	}
}
