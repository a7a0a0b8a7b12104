package model

import (
	"sync"
	"time"
)

// AnswerRecord 当前题目的最近一次作答
type AnswerRecord struct {
	Correct  bool `json:"correct"`
	Attempts int  `json:"attempts"`
}

// Session 单次练习运行的内存状态，不落库
// 主题或等级切换时丢弃，EndSession 是唯一的关卡/主题完成评估与落库冲刷点
type Session struct {
	ProfileID uint
	ThemeID   string
	AreaID    string
	Level     int

	Exercises []Exercise // 有序且只读
	Index     int
	Attempts  int // 当前题目的作答次数

	LastAnswer   *AnswerRecord
	ShowSolution bool
	HasAnswered  bool
	LevelFailed  bool
	IsCompleted  bool

	SolvedScores map[string]int // exerciseID -> 本次运行得分
	StarsEarned  int            // 本次运行计入的星星

	// 落库失败后待重试的结果记录，EndSession 冲刷
	PendingResults []*ExerciseResult

	StartedAt time.Time

	// 非重入保护：同一会话的并发触发（键盘+鼠标）只允许一个进行中，
	// 后到者被丢弃而不是排队
	guard sync.Mutex
}

// TryAcquire 尝试占用会话，占用失败表示已有操作在进行中
func (s *Session) TryAcquire() bool {
	return s.guard.TryLock()
}

// Release 释放会话占用
func (s *Session) Release() {
	s.guard.Unlock()
}

// Current 返回当前题目，越界时返回 nil
func (s *Session) Current() *Exercise {
	if s.Index < 0 || s.Index >= len(s.Exercises) {
		return nil
	}
	return &s.Exercises[s.Index]
}

// Matches 判断会话是否对应请求的主题+等级（StartSession 幂等判定）
func (s *Session) Matches(themeID string, level int) bool {
	return s.ThemeID == themeID && s.Level == level
}
