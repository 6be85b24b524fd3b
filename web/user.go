package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/to404hanga/online_judge_evaluator/constants"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/gintool"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/ratelimit"
	"github.com/to404hanga/online_judge_evaluator/service"
	ojjwt "github.com/to404hanga/online_judge_evaluator/web/jwt"
	"github.com/to404hanga/online_judge_evaluator/web/middleware"
)

type UserHandler struct {
	userSvc    service.UserService
	jwtHandler ojjwt.Handler
	rateLimit  *middleware.RateLimitMiddlewareBuilder
	log        logger.Logger
}

var _ Handler = (*UserHandler)(nil)

func NewUserHandler(userSvc service.UserService, jwtHandler ojjwt.Handler, rateLimit *middleware.RateLimitMiddlewareBuilder, log logger.Logger) *UserHandler {
	return &UserHandler{
		userSvc:    userSvc,
		jwtHandler: jwtHandler,
		rateLimit:  rateLimit,
		log:        log,
	}
}

func (h *UserHandler) Register(r *gin.Engine) {
	// 登录接口无登录态, 限流按来源地址计数且不豁免任何人
	r.POST(constants.LoginPath, h.rateLimit.Limit(ratelimit.BucketAuth, false), h.Login)
	r.POST(constants.CreateUserPath, gintool.WrapHandler(h.CreateUser, h.log))
}

func (h *UserHandler) Login(c *gin.Context) {
	var param model.LoginParam
	if err := c.ShouldBindJSON(&param); err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	user, err := h.userSvc.Login(ctx, param.Username, param.Password)
	if errors.Is(err, service.ErrInvalidUserOrPassword) {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusUnauthorized,
			Message: "invalid username or password",
		})
		return
	}
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		h.log.ErrorContext(ctx, "Login failed", logger.Error(err))
		return
	}

	if err = h.jwtHandler.SetLoginToken(c, user.ID, user.Role); err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		h.log.ErrorContext(ctx, "Login set login token failed", logger.Error(err))
		return
	}

	h.log.InfoContext(ctx, "user logged in", logger.Uint64("user_id", user.ID))
	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: model.LoginResponse{
			UserID: user.ID,
			Role:   user.Role,
		},
	})
}

func (h *UserHandler) CreateUser(c *gin.Context, param *model.CreateUserParam) {
	ctx := c.Request.Context()

	if param.CommonParam.Role != model.RoleAdmin {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusForbidden,
			Message: "admin required",
		})
		return
	}

	userID, err := h.userSvc.CreateUser(ctx, param)
	if errors.Is(err, service.ErrUserDuplicate) {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusConflict,
			Message: "username already exists",
		})
		return
	}
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		h.log.ErrorContext(ctx, "CreateUser failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    model.CreateUserResponse{UserID: userID},
	})
}
