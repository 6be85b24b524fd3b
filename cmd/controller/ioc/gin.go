package ioc

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/to404hanga/online_judge_evaluator/config"
	"github.com/to404hanga/online_judge_evaluator/constants"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/gintool"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/web"
	"github.com/to404hanga/online_judge_evaluator/web/jwt"
	"github.com/to404hanga/online_judge_evaluator/web/middleware"
)

func InitGinServer(l logger.Logger, jwtHandler jwt.Handler, submissionHandler *web.SubmissionHandler, userHandler *web.UserHandler, exportHandler *web.ExportHandler, healthHandler *web.HealthHandler) *web.GinServer {
	var cfg config.GinConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal gin config failed: %v", err)
	}

	// 优先使用环境变量中设置的服务端口
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Addr = ":" + port
	}

	registerValidators()

	ignorePaths := cfg.IgnorePaths
	if len(ignorePaths) == 0 {
		ignorePaths = []string{constants.LoginPath, "/health", "/metrics", "/debug/pprof"}
	}

	corsBuilder := middleware.NewCORSMiddlewareBuilder(
		cfg.AllowOrigins,
		cfg.AllowMethods,
		cfg.AllowHeaders,
		cfg.ExposeHeaders,
		cfg.AllowCredentials,
		time.Duration(cfg.MaxAge)*time.Second)
	jwtBuilder := middleware.NewJWTMiddlewareBuilder(jwtHandler, l, ignorePaths)

	engine := gin.Default()
	engine.Use(
		corsBuilder.Build(),
		jwtBuilder.CheckLogin(),
		gintool.ContextMiddleware(),
	)

	pprof.Register(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	submissionHandler.Register(engine)
	userHandler.Register(engine)
	exportHandler.Register(engine)
	healthHandler.Register(engine)

	return &web.GinServer{
		Engine: engine,
		Addr:   cfg.Addr,
	}
}

// registerValidators 注册自定义的参数校验规则
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		log.Panicf("unexpected validator engine type")
	}
	err := v.RegisterValidation("supported_language", func(fl validator.FieldLevel) bool {
		return model.Language(fl.Field().String()).Supported()
	})
	if err != nil {
		log.Panicf("register supported_language validator failed: %v", err)
	}
}
