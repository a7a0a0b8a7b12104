package model

import "encoding/json"

// Exercise 题目内容（只读输入），由内容包导入，引擎不会修改
// swagger:model Exercise
type Exercise struct {
	BaseModel
	ExerciseID        string          `gorm:"size:64;uniqueIndex;not null" json:"exerciseId"`
	Type              string          `gorm:"size:50;not null" json:"type"`
	ThemeID           string          `gorm:"size:64;index:idx_theme_level;not null" json:"themeId"`
	AreaID            string          `gorm:"size:64;index" json:"areaId"`
	Level             int             `gorm:"not null;index:idx_theme_level" json:"level"`      // 1-4
	Difficulty        int             `gorm:"default:1" json:"difficulty"`                      // 1-3
	Instruction       string          `gorm:"type:text" json:"instruction"`
	Content           json.RawMessage `gorm:"type:json" json:"content"`
	Hints             []string        `gorm:"type:json;serializer:json" json:"hints"`
	FeedbackCorrect   string          `gorm:"size:255" json:"feedbackCorrect"`
	FeedbackIncorrect string          `gorm:"size:255" json:"feedbackIncorrect"`
}

func (Exercise) TableName() string {
	return "exercises"
}
