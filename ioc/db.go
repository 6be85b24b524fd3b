package ioc

import (
	"log"

	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/to404hanga/online_judge_evaluator/config"
	"github.com/to404hanga/online_judge_evaluator/model"
)

func InitDB() *gorm.DB {
	var cfg config.MySQLConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal mysql config failed: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN))
	if err != nil {
		log.Panicf("open mysql failed: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.UserSolvedProblem{},
		&model.Problem{},
		&model.TestCase{},
		&model.Submission{},
	)
	if err != nil {
		log.Panicf("auto migrate failed: %v", err)
	}
	return db
}
