package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
)

const uniqueConflictErrNo uint16 = 1062

type UserService interface {
	// Login 校验用户名密码, 成功返回用户信息
	Login(ctx context.Context, username, password string) (*model.User, error)
	// CreateUser 创建用户, 仅管理员可调用
	CreateUser(ctx context.Context, param *model.CreateUserParam) (uint64, error)
	// AddSolvedProblem 将题目加入用户已通过集合, 重复加入幂等
	AddSolvedProblem(ctx context.Context, userID, problemID uint64) error
}

type UserServiceImpl struct {
	db  *gorm.DB
	log logger.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

func NewUserService(db *gorm.DB, log logger.Logger) UserService {
	return &UserServiceImpl{
		db:  db,
		log: log,
	}
}

func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ?", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidUserOrPassword
	}
	if err != nil {
		return nil, fmt.Errorf("Login failed at find user: %w", err)
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidUserOrPassword
	}
	return &user, nil
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, param *model.CreateUserParam) (uint64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("CreateUser failed at hash password: %w", err)
	}

	user := &model.User{
		Username: param.Username,
		Password: string(hashed),
		Role:     *param.Role,
	}
	err = s.db.WithContext(ctx).Create(user).Error
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == uniqueConflictErrNo {
		return 0, ErrUserDuplicate
	}
	if err != nil {
		return 0, fmt.Errorf("CreateUser failed at create user: %w", err)
	}

	s.log.InfoContext(ctx, "user created",
		logger.Uint64("user_id", user.ID),
		logger.Int8("role", user.Role),
	)
	return user.ID, nil
}

func (s *UserServiceImpl) AddSolvedProblem(ctx context.Context, userID, problemID uint64) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserSolvedProblem{
			UserID:    userID,
			ProblemID: problemID,
		}).Error
	if err != nil {
		return fmt.Errorf("AddSolvedProblem failed at create record: %w", err)
	}
	return nil
}
