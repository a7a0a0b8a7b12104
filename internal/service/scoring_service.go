package service

import "time"

// 评分策略：第1次答对3星，第2次2星，第3次1星，超过即0星
// MaxAttempts 同时是关卡失败判定：第3次仍答错则整个关卡失败
const (
	MaxAttempts          = 3
	DefaultStarsPerLevel = 10
)

// ScoringService 纯函数评分引擎，无任何副作用
// CalculateStars 是全系统唯一的星数换算实现
type ScoringService struct {
	StarsPerLevel int
}

func NewScoringService(starsPerLevel int) *ScoringService {
	if starsPerLevel <= 0 {
		starsPerLevel = DefaultStarsPerLevel
	}
	return &ScoringService{StarsPerLevel: starsPerLevel}
}

// CalculateStars 按作答次数换算星数
func (s *ScoringService) CalculateStars(attempts int) int {
	switch attempts {
	case 1:
		return 3
	case 2:
		return 2
	case MaxAttempts:
		return 1
	default:
		return 0
	}
}

// LevelFromStars 总星数换算全局等级，始终 >= 1
func (s *ScoringService) LevelFromStars(totalStars int) int {
	if totalStars < 0 {
		totalStars = 0
	}
	return totalStars/s.StarsPerLevel + 1
}

// StarsForNextLevel 距下一等级还差多少星
func (s *ScoringService) StarsForNextLevel(totalStars int) int {
	if totalStars < 0 {
		totalStars = 0
	}
	return s.StarsPerLevel - totalStars%s.StarsPerLevel
}

// CalculateGlobalLevel 跨主题组合等级：全部主题等级的均值向下取整
// 未解锁过的主题按 1 计；每个主题等级单调不减，组合结果随之单调
func (s *ScoringService) CalculateGlobalLevel(currentLevels map[string]int, allThemeIDs []string) int {
	if len(allThemeIDs) == 0 {
		return 1
	}
	sum := 0
	for _, themeID := range allThemeIDs {
		lvl := 1
		if currentLevels != nil {
			if v, ok := currentLevels[themeID]; ok && v >= 1 {
				lvl = v
			}
		}
		sum += lvl
	}
	level := sum / len(allThemeIDs)
	if level < 1 {
		return 1
	}
	return level
}

// IsStreakAtRisk 最后活跃日既不是今天也不是昨天（按本地日历日）即有中断风险
// 只驱动 UI 提示，绝不改动 streak 本身
func (s *ScoringService) IsStreakAtRisk(lastActiveDate, now time.Time) bool {
	if lastActiveDate.IsZero() {
		return true
	}
	diff := CalendarDaysBetween(lastActiveDate, now)
	return diff != 0 && diff != 1
}

// IsLevelAccessible 请求等级不超过当前解锁等级即可进入；等级 1 永远可进
func (s *ScoringService) IsLevelAccessible(themeID string, requestedLevel int, currentLevels map[string]int) bool {
	if requestedLevel <= 1 {
		return requestedLevel == 1
	}
	current := 1
	if currentLevels != nil {
		if v, ok := currentLevels[themeID]; ok && v >= 1 {
			current = v
		}
	}
	return requestedLevel <= current
}

// CalendarDaysBetween 按本地日历日计算 from 到 to 的天数差
func CalendarDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toDay.Sub(fromDay).Hours() / 24)
}
