package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateStars(t *testing.T) {
	s := NewScoringService(DefaultStarsPerLevel)

	assert.Equal(t, 3, s.CalculateStars(1))
	assert.Equal(t, 2, s.CalculateStars(2))
	assert.Equal(t, 1, s.CalculateStars(3))
	assert.Equal(t, 0, s.CalculateStars(4))
	assert.Equal(t, 0, s.CalculateStars(0))
	assert.Equal(t, 0, s.CalculateStars(-1))

	// 星数随作答次数严格递减
	for attempts := 1; attempts < MaxAttempts; attempts++ {
		assert.Greater(t, s.CalculateStars(attempts), s.CalculateStars(attempts+1))
	}
}

func TestLevelFromStars(t *testing.T) {
	s := NewScoringService(10)

	assert.Equal(t, 1, s.LevelFromStars(0))
	assert.Equal(t, 1, s.LevelFromStars(9))
	assert.Equal(t, 2, s.LevelFromStars(10))
	assert.Equal(t, 3, s.LevelFromStars(25))
	assert.Equal(t, 1, s.LevelFromStars(-5))
}

func TestStarsForNextLevel(t *testing.T) {
	s := NewScoringService(10)

	assert.Equal(t, 10, s.StarsForNextLevel(0))
	assert.Equal(t, 1, s.StarsForNextLevel(9))
	assert.Equal(t, 10, s.StarsForNextLevel(10))
	assert.Equal(t, 7, s.StarsForNextLevel(23))
}

func TestNewScoringServiceFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultStarsPerLevel, NewScoringService(0).StarsPerLevel)
	assert.Equal(t, DefaultStarsPerLevel, NewScoringService(-3).StarsPerLevel)
	assert.Equal(t, 5, NewScoringService(5).StarsPerLevel)
}

func TestCalculateGlobalLevel(t *testing.T) {
	s := NewScoringService(10)

	// 未解锁过的主题按 1 计
	assert.Equal(t, 1, s.CalculateGlobalLevel(nil, []string{"colors", "numbers"}))

	levels := map[string]int{"colors": 3, "numbers": 2}
	assert.Equal(t, 2, s.CalculateGlobalLevel(levels, []string{"colors", "numbers"}))

	// 向下取整: (3+2+1)/3 = 2
	assert.Equal(t, 2, s.CalculateGlobalLevel(levels, []string{"colors", "numbers", "animals"}))

	// 无主题时恒为 1
	assert.Equal(t, 1, s.CalculateGlobalLevel(levels, nil))
}

func TestCalculateGlobalLevelMonotonic(t *testing.T) {
	s := NewScoringService(10)
	themes := []string{"colors", "numbers", "animals"}
	levels := map[string]int{"colors": 1, "numbers": 1, "animals": 1}

	prev := s.CalculateGlobalLevel(levels, themes)
	for _, theme := range themes {
		for lvl := 2; lvl <= 4; lvl++ {
			levels[theme] = lvl
			got := s.CalculateGlobalLevel(levels, themes)
			assert.GreaterOrEqual(t, got, prev)
			prev = got
		}
	}
	assert.Equal(t, 4, prev)
}

func TestIsStreakAtRisk(t *testing.T) {
	s := NewScoringService(10)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)

	assert.False(t, s.IsStreakAtRisk(now, now))
	assert.False(t, s.IsStreakAtRisk(now.AddDate(0, 0, -1), now))
	assert.True(t, s.IsStreakAtRisk(now.AddDate(0, 0, -2), now))
	assert.True(t, s.IsStreakAtRisk(time.Time{}, now))

	// 日历日比较，不是 24 小时窗口：昨天 23:59 仍是昨天
	lateYesterday := time.Date(2026, 3, 9, 23, 59, 0, 0, time.Local)
	earlyToday := time.Date(2026, 3, 10, 0, 5, 0, 0, time.Local)
	assert.False(t, s.IsStreakAtRisk(lateYesterday, earlyToday))
}

func TestIsLevelAccessible(t *testing.T) {
	s := NewScoringService(10)
	levels := map[string]int{"colors": 3}

	assert.True(t, s.IsLevelAccessible("colors", 1, nil))
	assert.True(t, s.IsLevelAccessible("colors", 3, levels))
	assert.False(t, s.IsLevelAccessible("colors", 4, levels))
	assert.False(t, s.IsLevelAccessible("numbers", 2, levels))
	assert.False(t, s.IsLevelAccessible("colors", 0, levels))
}

func TestCalendarDaysBetween(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	assert.Equal(t, 0, CalendarDaysBetween(base, base.Add(5*time.Hour)))
	assert.Equal(t, 1, CalendarDaysBetween(base, base.AddDate(0, 0, 1)))
	assert.Equal(t, 7, CalendarDaysBetween(base, base.AddDate(0, 0, 7)))
	assert.Equal(t, -1, CalendarDaysBetween(base, base.AddDate(0, 0, -1)))
}
