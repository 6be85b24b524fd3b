package ioc

import (
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/to404hanga/online_judge_evaluator/config"
	"github.com/to404hanga/online_judge_evaluator/web/jwt"
)

func InitJWTHandler(rdb redis.Cmdable) jwt.Handler {
	var cfg config.JWTConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal jwt config failed: %v", err)
	}
	if cfg.JwtExpiration <= 0 {
		cfg.JwtExpiration = 30
	}
	if cfg.RefreshExpiration <= 0 {
		cfg.RefreshExpiration = 24 * 7
	}

	return jwt.NewRedisJWTHandler(rdb,
		[]byte(cfg.JwtKey),
		[]byte(cfg.RefreshKey),
		time.Duration(cfg.JwtExpiration)*time.Minute,
		time.Duration(cfg.RefreshExpiration)*time.Hour,
	)
}
