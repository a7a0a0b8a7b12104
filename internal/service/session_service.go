package service

import (
	"context"
	"fmt"
	"lerntrainer_backend/internal/model"
	"lerntrainer_backend/internal/util"
	"lerntrainer_backend/pkg/logger"
	"lerntrainer_backend/pkg/monitoring"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExerciseRepo 题目内容读取 + 导入
type ExerciseRepo interface {
	FindByThemeAndLevel(themeID string, level int, areaID string) ([]model.Exercise, error)
	FindByExerciseID(exerciseID string) (*model.Exercise, error)
	CountByTheme(themeID string) (int64, error)
	DistinctThemeIDs() ([]string, error)
	Upsert(exercise *model.Exercise) error
}

// ResultRepo 结果日志（追加写入）+ 去重查询
type ResultRepo interface {
	Create(result *model.ExerciseResult) error
	HasCompleted(profileID uint, exerciseID string) (bool, error)
	CompletedExerciseIDs(profileID uint, themeID string, level int) ([]string, error)
	CompletedByTheme(profileID uint, themeID string) (int64, error)
	DeleteByProfile(profileID uint) error
}

// SessionService 单次练习运行的状态机
// 状态流转: Idle → Active → Answering(n) → {Solved|Retry|LevelFailed} → {Next|Complete}
// LevelFailed 只允许 RestartLevel 或 ExitLevel
// 会话只存在于内存，EndSession 是唯一的完成评估与冲刷点
type SessionService struct {
	ExerciseRepo     ExerciseRepo
	ResultRepo       ResultRepo
	Profile          *ProfileService
	Achievement      *AchievementService
	NotificationRepo NotificationRepo
	Scoring          *ScoringService

	mu       sync.RWMutex
	sessions map[uint]*model.Session

	now func() time.Time
}

func NewSessionService(
	exerciseRepo ExerciseRepo,
	resultRepo ResultRepo,
	profileService *ProfileService,
	achievementService *AchievementService,
	notificationRepo NotificationRepo,
	scoring *ScoringService,
) *SessionService {
	return &SessionService{
		ExerciseRepo:     exerciseRepo,
		ResultRepo:       resultRepo,
		Profile:          profileService,
		Achievement:      achievementService,
		NotificationRepo: notificationRepo,
		Scoring:          scoring,
		sessions:         make(map[uint]*model.Session),
		now:              time.Now,
	}
}

// SessionView 面向练习渲染组件的会话状态；组件自身不持有任何流转逻辑
type SessionView struct {
	ThemeID      string               `json:"themeId"`
	AreaID       string               `json:"areaId,omitempty"`
	Level        int                  `json:"level"`
	Current      int                  `json:"current"` // 1 起始
	Total        int                  `json:"total"`
	Attempts     int                  `json:"attempts"`
	LastAnswer   *model.AnswerRecord  `json:"lastAnswer,omitempty"`
	ShowSolution bool                 `json:"showSolution"`
	LevelFailed  bool                 `json:"levelFailed"`
	IsCompleted  bool                 `json:"isCompleted"`
	Exercise     *model.Exercise      `json:"exercise,omitempty"`
}

// SubmitAnswerRequest 渲染组件只上报判定结果与用时，判题本身在组件内完成
type SubmitAnswerRequest struct {
	Correct          bool `json:"correct"`
	TimeSpentSeconds int  `json:"timeSpentSeconds"`
}

// SubmitAnswerResponse 作答结果：得分、是否计星、新徽章
type SubmitAnswerResponse struct {
	View      *SessionView  `json:"view"`
	Correct   bool          `json:"correct"`
	Score     int           `json:"score"`
	Credited  bool          `json:"credited"`
	Feedback  string        `json:"feedback,omitempty"`
	NewBadges []model.Badge `json:"newBadges,omitempty"`
}

// SessionSummary EndSession 的返回数据
type SessionSummary struct {
	ThemeID       string        `json:"themeId"`
	Level         int           `json:"level"`
	Total         int           `json:"total"`
	Solved        int           `json:"solved"`
	StarsEarned   int           `json:"starsEarned"`
	UnlockedLevel int           `json:"unlockedLevel,omitempty"` // 0 表示未解锁新等级
	NewBadges     []model.Badge `json:"newBadges,omitempty"`
}

// StartSession 进入练习：按主题+等级装载有序题目列表
// 同一主题+等级重复调用是幂等的；不同目标则丢弃旧会话重新开始，
// 前提是旧会话的待重试落库冲刷成功——冲刷失败时旧会话保留，切换被拒绝
func (s *SessionService) StartSession(ctx context.Context, profileID uint, themeID, areaID string, level int) (*SessionView, error) {
	profile, err := s.Profile.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !s.Scoring.IsLevelAccessible(themeID, level, profile.CurrentLevels) {
		return nil, util.ErrLevelNotAccessible
	}

	if existing := s.getSession(profileID); existing != nil {
		if !existing.TryAcquire() {
			logger.Log.Warn("concurrent start dropped", zap.Uint("profileID", profileID))
			return nil, util.ErrOperationInFlight
		}
		if s.getSession(profileID) == existing {
			if existing.Matches(themeID, level) && !existing.IsCompleted {
				view := s.view(existing)
				existing.Release()
				return view, nil
			}
			// 切换目标前必须冲刷旧会话的待重试落库：
			// 这些记录同时是去重依据，丢了它们存储恢复后重放同一题会二次计星
			if err := s.flushPending(existing); err != nil {
				existing.Release()
				return nil, err
			}
			s.mu.Lock()
			delete(s.sessions, profileID)
			s.mu.Unlock()
		}
		existing.Release()
	}

	exercises, err := s.ExerciseRepo.FindByThemeAndLevel(themeID, level, areaID)
	if err != nil {
		return nil, fmt.Errorf("%w: load exercises: %v", util.ErrPersistence, err)
	}
	if len(exercises) == 0 {
		return nil, util.ErrNoExercises
	}

	session := &model.Session{
		ProfileID:    profileID,
		ThemeID:      themeID,
		AreaID:       areaID,
		Level:        level,
		Exercises:    exercises,
		SolvedScores: make(map[string]int),
		StartedAt:    s.now(),
	}

	s.mu.Lock()
	s.sessions[profileID] = session
	s.mu.Unlock()

	logger.Log.Info("session started",
		zap.Uint("profileID", profileID),
		zap.String("themeID", themeID),
		zap.Int("level", level),
		zap.Int("exercises", len(exercises)))

	return s.view(session), nil
}

// SubmitAnswer 作答：计数、判定 Solved/Retry/LevelFailed、首次通关计星
// 已跨会话完成过的题目仍返回完整正反馈，但 credited=false，不触发任何计星/徽章
func (s *SessionService) SubmitAnswer(ctx context.Context, profileID uint, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	session := s.getSession(profileID)
	if session == nil {
		logger.Log.Warn("submit with no active session", zap.Uint("profileID", profileID))
		return nil, util.ErrNoActiveSession
	}
	if !session.TryAcquire() {
		logger.Log.Warn("concurrent submit dropped", zap.Uint("profileID", profileID))
		return nil, util.ErrOperationInFlight
	}
	defer session.Release()

	if session.IsCompleted {
		return nil, util.ErrNoActiveSession
	}
	if session.LevelFailed {
		return nil, util.ErrLevelFailed
	}

	exercise := session.Current()
	if exercise == nil {
		return nil, util.ErrNoActiveSession
	}

	// 已解出后的重复提交（双触发）按防御性空操作处理
	if session.HasAnswered && session.LastAnswer != nil && session.LastAnswer.Correct {
		logger.Log.Debug("duplicate submit after solve ignored", zap.Uint("profileID", profileID))
		return &SubmitAnswerResponse{
			View:     s.view(session),
			Correct:  true,
			Score:    session.SolvedScores[exercise.ExerciseID],
			Credited: false,
			Feedback: exercise.FeedbackCorrect,
		}, nil
	}

	session.Attempts++
	session.HasAnswered = true
	session.LastAnswer = &model.AnswerRecord{Correct: req.Correct, Attempts: session.Attempts}

	monitoring.AnswersTotal.WithLabelValues(strconv.FormatBool(req.Correct)).Inc()

	if !req.Correct {
		if session.Attempts >= MaxAttempts {
			// 整个关卡失败，只能从第一题重新开始
			session.LevelFailed = true
			session.ShowSolution = true
			logger.Log.Info("level failed",
				zap.Uint("profileID", profileID),
				zap.String("exerciseID", exercise.ExerciseID))
		}
		return &SubmitAnswerResponse{
			View:     s.view(session),
			Feedback: exercise.FeedbackIncorrect,
		}, nil
	}

	score := s.Scoring.CalculateStars(session.Attempts)

	// CompletionGuard：跨会话去重，星星只在首次正确完成时计入
	alreadyCompleted, err := s.ResultRepo.HasCompleted(profileID, exercise.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("%w: completion lookup: %v", util.ErrPersistence, err)
	}
	_, solvedThisRun := session.SolvedScores[exercise.ExerciseID]
	credited := !alreadyCompleted && !solvedThisRun

	session.SolvedScores[exercise.ExerciseID] = score

	result := &model.ExerciseResult{
		ProfileID:        profileID,
		ExerciseID:       exercise.ExerciseID,
		ThemeID:          session.ThemeID,
		AreaID:           session.AreaID,
		Level:            session.Level,
		Correct:          true,
		Score:            score,
		Attempts:         session.Attempts,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Credited:         credited,
		CompletedAt:      s.now(),
	}

	var persistErr error
	if err := s.ResultRepo.Create(result); err != nil {
		// 落库失败：内存状态保留乐观值，记录进待重试缓冲，错误向上传播
		session.PendingResults = append(session.PendingResults, result)
		logger.Log.Error("durable result write failed",
			zap.Uint("profileID", profileID),
			zap.String("exerciseID", exercise.ExerciseID),
			zap.Error(err))
		persistErr = fmt.Errorf("%w: result write: %v", util.ErrPersistence, err)
	}

	response := &SubmitAnswerResponse{
		Correct:  true,
		Score:    score,
		Credited: credited,
		Feedback: exercise.FeedbackCorrect,
	}

	if credited {
		session.StarsEarned += score
		newBadges, creditErr := s.credit(ctx, profileID, session.ThemeID, score)
		response.NewBadges = newBadges
		if creditErr != nil && persistErr == nil {
			persistErr = creditErr
		}
	} else {
		monitoring.DuplicateSkipsTotal.Inc()
		logger.Log.Debug("completion guard skipped credit",
			zap.Uint("profileID", profileID),
			zap.String("exerciseID", exercise.ExerciseID))
	}

	response.View = s.view(session)
	return response, persistErr
}

// credit 首次通关的计星路径：星数、连续天数、主题星数，全部提交后再评估徽章
// 徽章评估必须读取变更后的最新档案，绝不能用变更前捕获的旧值
// 任一档案落库失败都向上传播（快照保留乐观值），徽章评估失败只记日志
func (s *SessionService) credit(ctx context.Context, profileID uint, themeID string, score int) ([]model.Badge, error) {
	var creditErr error

	totalAfter, err := s.Profile.AddStars(ctx, profileID, score)
	if err != nil {
		logger.Log.Error("add stars failed", zap.Uint("profileID", profileID), zap.Error(err))
		creditErr = err
	} else {
		monitoring.StarsCreditedTotal.Add(float64(score))
		levelBefore := s.Scoring.LevelFromStars(totalAfter - score)
		levelAfter := s.Scoring.LevelFromStars(totalAfter)
		if levelAfter > levelBefore {
			if err := s.NotificationRepo.SetPendingLevelUp(ctx, profileID, levelAfter); err != nil {
				logger.Log.Warn("failed to queue level-up", zap.Uint("profileID", profileID), zap.Error(err))
			}
		}
	}

	if _, err := s.Profile.IncrementStreak(ctx, profileID); err != nil {
		logger.Log.Error("streak update failed", zap.Uint("profileID", profileID), zap.Error(err))
		if creditErr == nil {
			creditErr = err
		}
	}
	if err := s.Profile.AddThemeStars(ctx, profileID, themeID, score); err != nil {
		logger.Log.Error("theme stars update failed", zap.Uint("profileID", profileID), zap.Error(err))
		if creditErr == nil {
			creditErr = err
		}
	}

	newBadges, err := s.Achievement.EvaluateNewBadges(ctx, profileID)
	if err != nil {
		logger.Log.Error("badge evaluation failed", zap.Uint("profileID", profileID), zap.Error(err))
		return nil, creditErr
	}
	return newBadges, creditErr
}

// NextExercise 推进到下一题，重置题目级瞬态标志
// LevelFailed 状态下被阻塞，未作答时按防御性空操作处理
func (s *SessionService) NextExercise(profileID uint) (*SessionView, error) {
	session := s.getSession(profileID)
	if session == nil {
		return nil, util.ErrNoActiveSession
	}
	if !session.TryAcquire() {
		logger.Log.Warn("concurrent next dropped", zap.Uint("profileID", profileID))
		return nil, util.ErrOperationInFlight
	}
	defer session.Release()

	if session.LevelFailed {
		return nil, util.ErrLevelFailed
	}
	if session.IsCompleted {
		return s.view(session), nil
	}
	if !session.HasAnswered {
		logger.Log.Debug("next without answer ignored", zap.Uint("profileID", profileID))
		return s.view(session), nil
	}

	session.Index++
	session.Attempts = 0
	session.ShowSolution = false
	session.HasAnswered = false
	session.LastAnswer = nil
	if session.Index >= len(session.Exercises) {
		session.IsCompleted = true
	}

	return s.view(session), nil
}

// RestartLevel 关卡失败后的重开：同一组题目从头开始，不重新装载内容
func (s *SessionService) RestartLevel(profileID uint) (*SessionView, error) {
	session := s.getSession(profileID)
	if session == nil {
		return nil, util.ErrNoActiveSession
	}
	if !session.TryAcquire() {
		return nil, util.ErrOperationInFlight
	}
	defer session.Release()

	session.Index = 0
	session.Attempts = 0
	session.LevelFailed = false
	session.ShowSolution = false
	session.HasAnswered = false
	session.LastAnswer = nil
	session.IsCompleted = false

	logger.Log.Info("level restarted", zap.Uint("profileID", profileID), zap.String("themeID", session.ThemeID))
	return s.view(session), nil
}

// ExitLevel 放弃当前运行：冲刷待重试结果后丢弃会话
// 持有未冲刷落库的会话不允许丢弃（记录同时是去重依据），错误传播供重试
func (s *SessionService) ExitLevel(profileID uint) error {
	session := s.getSession(profileID)
	if session == nil {
		return util.ErrNoActiveSession
	}
	if !session.TryAcquire() {
		logger.Log.Warn("concurrent exit dropped", zap.Uint("profileID", profileID))
		return util.ErrOperationInFlight
	}
	defer session.Release()

	if s.getSession(profileID) != session {
		return util.ErrNoActiveSession
	}
	if err := s.flushPending(session); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, profileID)
	s.mu.Unlock()
	return nil
}

// EndSession 会话终点：唯一的关卡/主题完成评估与落库冲刷点
// 调用方必须等待其完成后再导航离开；落库失败时会话保留，可重新调用重试
// 并发的重复调用只有一个会执行，其余被丢弃
func (s *SessionService) EndSession(ctx context.Context, profileID uint) (*SessionSummary, error) {
	session := s.getSession(profileID)
	if session == nil {
		return nil, util.ErrNoActiveSession
	}
	if !session.TryAcquire() {
		logger.Log.Warn("concurrent end-session dropped", zap.Uint("profileID", profileID))
		return nil, util.ErrOperationInFlight
	}
	defer session.Release()

	// 并发的另一次调用可能已完成并注销了会话
	if s.getSession(profileID) != session {
		return nil, util.ErrNoActiveSession
	}

	// 先冲刷之前失败的落库；仍失败则保留会话供重试
	if err := s.flushPending(session); err != nil {
		return nil, err
	}

	// 关卡完成判定：耐久层记录 ∪ 本次会话解出集合
	// （不能假设耐久层的写后读一致性，刚解出的题可能尚未可见）
	durableIDs, err := s.ResultRepo.CompletedExerciseIDs(profileID, session.ThemeID, session.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: completion aggregate: %v", util.ErrPersistence, err)
	}
	completed := make(map[string]bool, len(durableIDs)+len(session.SolvedScores))
	for _, id := range durableIDs {
		completed[id] = true
	}
	for id := range session.SolvedScores {
		completed[id] = true
	}

	levelDone := true
	for i := range session.Exercises {
		if !completed[session.Exercises[i].ExerciseID] {
			levelDone = false
			break
		}
	}

	summary := &SessionSummary{
		ThemeID:     session.ThemeID,
		Level:       session.Level,
		Total:       len(session.Exercises),
		Solved:      len(session.SolvedScores),
		StarsEarned: session.StarsEarned,
	}

	if levelDone && session.Level < util.MaxThemeLevel {
		profile, err := s.Profile.GetProfile(ctx, profileID)
		if err == nil && profile.ThemeLevel(session.ThemeID) <= session.Level {
			if newLevel, err := s.Profile.UpdateThemeLevel(ctx, profileID, session.ThemeID, session.Level+1); err != nil {
				logger.Log.Error("theme level unlock failed", zap.Uint("profileID", profileID), zap.Error(err))
			} else {
				summary.UnlockedLevel = newLevel
			}
		}
	}

	// 主题完成度回写
	themeCompleted, err := s.ResultRepo.CompletedByTheme(profileID, session.ThemeID)
	if err != nil {
		logger.Log.Error("theme completion aggregate failed", zap.Uint("profileID", profileID), zap.Error(err))
	} else {
		total, err := s.ExerciseRepo.CountByTheme(session.ThemeID)
		if err == nil {
			if err := s.Profile.SetThemeCompletion(ctx, profileID, session.ThemeID, int(themeCompleted), int(total)); err != nil {
				logger.Log.Error("theme completion write failed", zap.Uint("profileID", profileID), zap.Error(err))
			}
		}
	}

	// 主题完成类徽章可能刚被满足，评估一次（读最新档案）
	if newBadges, err := s.Achievement.EvaluateNewBadges(ctx, profileID); err != nil {
		logger.Log.Error("badge evaluation failed", zap.Uint("profileID", profileID), zap.Error(err))
	} else {
		summary.NewBadges = newBadges
	}

	s.mu.Lock()
	delete(s.sessions, profileID)
	s.mu.Unlock()

	monitoring.SessionsEndedTotal.Inc()
	logger.Log.Info("session ended",
		zap.Uint("profileID", profileID),
		zap.String("themeID", session.ThemeID),
		zap.Int("solved", summary.Solved),
		zap.Int("stars", summary.StarsEarned))

	return summary, nil
}

// GetProgress 只读的会话视图；读同样占用会话，避免与进行中的变更交错
func (s *SessionService) GetProgress(profileID uint) (*SessionView, error) {
	session := s.getSession(profileID)
	if session == nil {
		return nil, util.ErrNoActiveSession
	}
	if !session.TryAcquire() {
		return nil, util.ErrOperationInFlight
	}
	defer session.Release()
	return s.view(session), nil
}

func (s *SessionService) getSession(profileID uint) *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[profileID]
}

// flushPending 重试之前失败的结果落库，成功的记录移出缓冲
func (s *SessionService) flushPending(session *model.Session) error {
	for len(session.PendingResults) > 0 {
		result := session.PendingResults[0]
		if err := s.ResultRepo.Create(result); err != nil {
			logger.Log.Error("pending result flush failed",
				zap.Uint("profileID", session.ProfileID),
				zap.String("exerciseID", result.ExerciseID),
				zap.Error(err))
			return fmt.Errorf("%w: pending flush: %v", util.ErrPersistence, err)
		}
		session.PendingResults = session.PendingResults[1:]
	}
	return nil
}

func (s *SessionService) view(session *model.Session) *SessionView {
	current := session.Index + 1
	if current > len(session.Exercises) {
		current = len(session.Exercises)
	}
	view := &SessionView{
		ThemeID:      session.ThemeID,
		AreaID:       session.AreaID,
		Level:        session.Level,
		Current:      current,
		Total:        len(session.Exercises),
		Attempts:     session.Attempts,
		LastAnswer:   session.LastAnswer,
		ShowSolution: session.ShowSolution,
		LevelFailed:  session.LevelFailed,
		IsCompleted:  session.IsCompleted,
	}
	if !session.IsCompleted {
		view.Exercise = session.Current()
	}
	return view
}
