package model

import (
	"errors"
	"fmt"
	"time"
)

const SaveGameVersion = 1

var (
	ErrSaveGameVersion = errors.New("unsupported savegame version")
	ErrSaveGameShape   = errors.New("malformed savegame payload")
)

// SavedBadge 存档中的徽章投影
type SavedBadge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// SaveGamePayload 带版本号的存档文件，Profile 的纯投影
// 导出为只读快照，导入前校验结构与数值范围（不做加密签名）
// swagger:model SaveGamePayload
type SaveGamePayload struct {
	Version        int                      `json:"version"`
	ExportedAt     time.Time                `json:"exportedAt"`
	Nickname       string                   `json:"nickname"`
	AvatarID       string                   `json:"avatarId"`
	TotalStars     int                      `json:"totalStars"`
	CurrentStreak  int                      `json:"currentStreak"`
	LongestStreak  int                      `json:"longestStreak"`
	LastActiveDate string                   `json:"lastActiveDate"` // ISO 日期 2006-01-02
	CurrentLevels  map[string]int           `json:"currentLevels"`
	ThemeProgress  map[string]ThemeProgress `json:"themeProgress"`
	Badges         []SavedBadge             `json:"badges"`
}

// Validate 在任何状态变更前进行结构与范围校验，失败时零副作用
func (p *SaveGamePayload) Validate() error {
	if p.Version != SaveGameVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSaveGameVersion, p.Version, SaveGameVersion)
	}
	if p.Nickname == "" {
		return fmt.Errorf("%w: empty nickname", ErrSaveGameShape)
	}
	if p.TotalStars < 0 {
		return fmt.Errorf("%w: negative totalStars", ErrSaveGameShape)
	}
	if p.CurrentStreak < 0 || p.LongestStreak < 0 {
		return fmt.Errorf("%w: negative streak", ErrSaveGameShape)
	}
	if p.LongestStreak < p.CurrentStreak {
		return fmt.Errorf("%w: longestStreak < currentStreak", ErrSaveGameShape)
	}
	if p.LastActiveDate != "" {
		if _, err := time.Parse("2006-01-02", p.LastActiveDate); err != nil {
			return fmt.Errorf("%w: bad lastActiveDate %q", ErrSaveGameShape, p.LastActiveDate)
		}
	}
	for theme, lvl := range p.CurrentLevels {
		if lvl < 1 || lvl > 4 {
			return fmt.Errorf("%w: level %d for theme %q out of range", ErrSaveGameShape, lvl, theme)
		}
	}
	for theme, tp := range p.ThemeProgress {
		if tp.ExercisesCompleted < 0 || tp.Total < 0 || tp.StarsEarned < 0 {
			return fmt.Errorf("%w: negative progress for theme %q", ErrSaveGameShape, theme)
		}
		if tp.Total > 0 && tp.ExercisesCompleted > tp.Total {
			return fmt.Errorf("%w: completed > total for theme %q", ErrSaveGameShape, theme)
		}
	}
	seen := make(map[string]bool, len(p.Badges))
	for _, b := range p.Badges {
		if b.ID == "" {
			return fmt.Errorf("%w: badge with empty id", ErrSaveGameShape)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate badge id %q", ErrSaveGameShape, b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}
