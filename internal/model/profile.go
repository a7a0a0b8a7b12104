package model

import (
	"time"
)

type ProfileRole string

const (
	RoleStudent ProfileRole = "student"
	RoleTeacher ProfileRole = "teacher"
)

// ThemeProgress 单个主题的进度汇总
type ThemeProgress struct {
	ExercisesCompleted int `json:"exercisesCompleted"`
	Total              int `json:"total"`
	StarsEarned        int `json:"starsEarned"`
}

// Profile 学习者档案聚合，游戏化状态的权威来源
// totalStars 只增不减，currentLevels 单调不回退，badges 只追加
// swagger:model Profile
type Profile struct {
	BaseModel
	Nickname       string                   `gorm:"size:100;not null" json:"nickname"`
	AvatarID       string                   `gorm:"size:64" json:"avatarId"`
	Role           ProfileRole              `gorm:"type:enum('student','teacher');default:'student'" json:"role"`
	TotalStars     int                      `gorm:"default:0" json:"totalStars"`
	CurrentStreak  int                      `gorm:"default:0" json:"currentStreak"`
	LongestStreak  int                      `gorm:"default:0" json:"longestStreak"`
	LastActiveDate time.Time                `json:"lastActiveDate"`
	CurrentLevels  map[string]int           `gorm:"type:json;serializer:json" json:"currentLevels"`
	ThemeProgress  map[string]ThemeProgress `gorm:"type:json;serializer:json" json:"themeProgress"`
	Badges         []Badge                  `gorm:"foreignKey:ProfileID" json:"badges"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ThemeLevel 返回某主题当前解锁等级，未记录视为 1
func (p *Profile) ThemeLevel(themeID string) int {
	if p.CurrentLevels == nil {
		return 1
	}
	if lvl, ok := p.CurrentLevels[themeID]; ok && lvl >= 1 {
		return lvl
	}
	return 1
}

// HasBadge 判断徽章是否已获得
func (p *Profile) HasBadge(badgeID string) bool {
	for _, b := range p.Badges {
		if b.BadgeID == badgeID {
			return true
		}
	}
	return false
}

// CompletedThemes 统计已完成（全部练习做完）的主题数量
func (p *Profile) CompletedThemes() int {
	count := 0
	for _, tp := range p.ThemeProgress {
		if tp.Total > 0 && tp.ExercisesCompleted >= tp.Total {
			count++
		}
	}
	return count
}
