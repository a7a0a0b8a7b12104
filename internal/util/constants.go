package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 每日挑战 Key 前缀，完整格式: daily-challenge-2006-01-02
const (
	DailyChallengePrefix = "daily-challenge-"
	BonusChallengePrefix = "bonus-challenge-"
)

const (
	MinThemeLevel = 1
	MaxThemeLevel = 4

	MinDifficulty = 1
	MaxDifficulty = 3
)
