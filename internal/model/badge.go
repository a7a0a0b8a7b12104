package model

import "time"

// BadgeRuleKind 徽章规则类型，规则是数据而不是闭包，可序列化、可单独测试
type BadgeRuleKind string

const (
	RuleTotalStars      BadgeRuleKind = "totalStars"
	RuleStreak          BadgeRuleKind = "streak"
	RuleThemesCompleted BadgeRuleKind = "themesCompleted"
)

// BadgeDefinition 徽章定义（带阈值的标签化规则）
// swagger:model BadgeDefinition
type BadgeDefinition struct {
	BaseModel
	BadgeID     string        `gorm:"size:64;uniqueIndex;not null" json:"badgeId"`
	Name        string        `gorm:"size:100;not null" json:"name"`
	Description string        `gorm:"size:255" json:"description"`
	Icon        string        `gorm:"size:64" json:"icon"`
	RuleKind    BadgeRuleKind `gorm:"size:32;not null" json:"ruleKind"`
	Threshold   int           `gorm:"not null" json:"threshold"`
	SortOrder   int           `gorm:"default:0" json:"sortOrder"` // 稳定的评估与通知顺序
	Enabled     bool          `gorm:"default:true" json:"enabled"`
}

func (BadgeDefinition) TableName() string {
	return "badge_definitions"
}

// Badge 用户已获得的徽章，只追加，BadgeID 在单个档案内唯一
// swagger:model Badge
type Badge struct {
	BaseModel
	ProfileID   uint      `gorm:"index:idx_profile_badge,unique;not null" json:"-"`
	BadgeID     string    `gorm:"size:64;index:idx_profile_badge,unique;not null" json:"badgeId"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Icon        string    `gorm:"size:64" json:"icon"`
	EarnedAt    time.Time `gorm:"not null" json:"earnedAt"`
}

func (Badge) TableName() string {
	return "badges"
}
