package model

import "time"

type Problem struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	TimeLimit   int       `gorm:"not null;default:2000" json:"time_limit"`  // 毫秒
	MemoryLimit int       `gorm:"not null;default:256" json:"memory_limit"` // MB
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TestCase 题目测试用例, Hidden 用例仅参与真实提交的判题
type TestCase struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProblemID      uint64 `gorm:"not null;index" json:"problem_id"`
	Input          string `gorm:"type:text" json:"input"`
	ExpectedOutput string `gorm:"type:text" json:"expected_output"`
	Hidden         bool   `gorm:"not null;default:false" json:"hidden"`
}
