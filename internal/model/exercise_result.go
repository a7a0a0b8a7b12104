package model

import "time"

// ExerciseResult 练习结果日志，追加写入，永不更新
// 去重判定（CompletionGuard）依赖 correct=true 的历史记录
// swagger:model ExerciseResult
type ExerciseResult struct {
	UUIDBase
	ProfileID        uint      `gorm:"index:idx_profile_exercise;not null" json:"profileId"`
	ExerciseID       string    `gorm:"size:64;index:idx_profile_exercise;not null" json:"exerciseId"`
	ThemeID          string    `gorm:"size:64;index:idx_theme_level_result" json:"themeId"`
	AreaID           string    `gorm:"size:64" json:"areaId"`
	Level            int       `gorm:"index:idx_theme_level_result" json:"level"`
	Correct          bool      `gorm:"not null" json:"correct"`
	Score            int       `gorm:"not null" json:"score"` // 0-3 星
	Attempts         int       `gorm:"not null" json:"attempts"`
	TimeSpentSeconds int       `json:"timeSpentSeconds"`
	Credited         bool      `gorm:"default:false" json:"credited"` // 是否首次通关计入星星
	CompletedAt      time.Time `gorm:"not null" json:"completedAt"`
}

func (ExerciseResult) TableName() string {
	return "exercise_results"
}
