package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"gorm.io/gorm"
)

type ProblemService interface {
	// GetProblemByID 获取题目
	GetProblemByID(ctx context.Context, problemID uint64) (*model.Problem, error)
	// GetTestCases 获取题目测试用例, includeHidden 为 true 时包含隐藏用例
	GetTestCases(ctx context.Context, problemID uint64, includeHidden bool) ([]model.TestCase, error)
}

type ProblemServiceImpl struct {
	db  *gorm.DB
	log logger.Logger
}

var _ ProblemService = (*ProblemServiceImpl)(nil)

func NewProblemService(db *gorm.DB, log logger.Logger) ProblemService {
	return &ProblemServiceImpl{
		db:  db,
		log: log,
	}
}

func (s *ProblemServiceImpl) GetProblemByID(ctx context.Context, problemID uint64) (*model.Problem, error) {
	var problem model.Problem
	err := s.db.WithContext(ctx).Model(&model.Problem{}).
		Where("id = ?", problemID).
		First(&problem).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProblemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetProblemByID failed at find problem: %w", err)
	}
	return &problem, nil
}

func (s *ProblemServiceImpl) GetTestCases(ctx context.Context, problemID uint64, includeHidden bool) ([]model.TestCase, error) {
	query := s.db.WithContext(ctx).Model(&model.TestCase{}).
		Where("problem_id = ?", problemID)
	if !includeHidden {
		query = query.Where("hidden = ?", false)
	}

	var testCases []model.TestCase
	err := query.Order("id ASC").Find(&testCases).Error
	if err != nil {
		return nil, fmt.Errorf("GetTestCases failed at find test cases: %w", err)
	}
	return testCases, nil
}
