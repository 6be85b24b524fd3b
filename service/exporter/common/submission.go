package common

import (
	"context"

	"github.com/to404hanga/online_judge_evaluator/model"
	"gorm.io/gorm"
)

// FetchSubmissions 按题目分页拉取提交记录, page 从 1 开始
func FetchSubmissions(db *gorm.DB, ctx context.Context, problemID uint64, page, batchSize int) ([]model.Submission, error) {
	var submissions []model.Submission
	err := db.WithContext(ctx).Model(&model.Submission{}).
		Where("problem_id = ?", problemID).
		Order("id ASC").
		Offset((page - 1) * batchSize).
		Limit(batchSize).
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// SubmissionHeaders 导出文件的表头
func SubmissionHeaders() []string {
	return []string{
		"提交ID",
		"用户ID",
		"语言",
		"状态",
		"通过用例数",
		"总用例数",
		"耗时(秒)",
		"内存(KB)",
		"提交时间",
	}
}
