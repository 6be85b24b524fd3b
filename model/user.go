package model

import "time"

type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	Password  string    `gorm:"type:varchar(128);not null" json:"-"`
	Role      int8      `gorm:"not null;default:0" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSolvedProblem 用户已通过题目集合, (user_id, problem_id) 唯一,
// 并发的重复 accepted 通过 INSERT IGNORE 语义保证幂等
type UserSolvedProblem struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uniq_user_problem" json:"user_id"`
	ProblemID uint64    `gorm:"not null;uniqueIndex:uniq_user_problem" json:"problem_id"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginParam struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	UserID uint64 `json:"user_id"`
	Role   int8   `json:"role"`
}

type CreateUserParam struct {
	CommonParam `json:"-"`

	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Role     *int8  `json:"role" binding:"required,oneof=0 1"`
}

type CreateUserResponse struct {
	UserID uint64 `json:"user_id"`
}
