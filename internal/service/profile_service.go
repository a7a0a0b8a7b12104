package service

import (
	"context"
	"errors"
	"fmt"
	"lerntrainer_backend/internal/model"
	"lerntrainer_backend/internal/util"
	"lerntrainer_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProfileRepo 档案聚合的持久层接口
type ProfileRepo interface {
	Create(profile *model.Profile) error
	NicknameExists(nickname string) (bool, error)
	FindByID(id uint) (*model.Profile, error)
	Update(profile *model.Profile) error
	AppendBadges(profileID uint, badges []model.Badge) error
	ReplaceBadges(profileID uint, badges []model.Badge) error
	Delete(id uint) error
	FindTopByStars(limit int) ([]model.Profile, error)
}

// SnapshotRepo 快速层整档案快照
type SnapshotRepo interface {
	Save(ctx context.Context, profile *model.Profile) error
	Load(ctx context.Context, profileID uint) (*model.Profile, error)
	Delete(ctx context.Context, profileID uint) error
}

// ProfileService 学习者档案的校验变更 API
// 每次变更先写 MySQL 再覆盖快照；落库失败时快照保留乐观值，错误向调用方传播
type ProfileService struct {
	ProfileRepo      ProfileRepo
	SnapshotRepo     SnapshotRepo
	ResultRepo       ResultRepo
	NotificationRepo NotificationRepo
	ExerciseRepo     ExerciseRepo
	Scoring          *ScoringService

	now func() time.Time
}

func NewProfileService(
	profileRepo ProfileRepo,
	snapshotRepo SnapshotRepo,
	resultRepo ResultRepo,
	notificationRepo NotificationRepo,
	exerciseRepo ExerciseRepo,
	scoring *ScoringService,
) *ProfileService {
	return &ProfileService{
		ProfileRepo:      profileRepo,
		SnapshotRepo:     snapshotRepo,
		ResultRepo:       resultRepo,
		NotificationRepo: notificationRepo,
		ExerciseRepo:     exerciseRepo,
		Scoring:          scoring,
		now:              time.Now,
	}
}

type CreateProfileRequest struct {
	Nickname string            `json:"nickname" binding:"required"`
	AvatarID string            `json:"avatarId"`
	Role     model.ProfileRole `json:"role"`
}

// CreateProfile 注册新档案，昵称全局唯一
func (s *ProfileService) CreateProfile(ctx context.Context, req CreateProfileRequest) (*model.Profile, error) {
	taken, err := s.ProfileRepo.NicknameExists(req.Nickname)
	if err != nil {
		return nil, fmt.Errorf("%w: nickname lookup: %v", util.ErrPersistence, err)
	}
	if taken {
		return nil, util.ErrNicknameTaken
	}

	role := req.Role
	if role != model.RoleTeacher {
		role = model.RoleStudent
	}
	profile := &model.Profile{
		Nickname:      req.Nickname,
		AvatarID:      req.AvatarID,
		Role:          role,
		CurrentLevels: map[string]int{},
		ThemeProgress: map[string]model.ThemeProgress{},
	}
	if err := s.ProfileRepo.Create(profile); err != nil {
		return nil, fmt.Errorf("%w: create profile: %v", util.ErrPersistence, err)
	}
	s.writeSnapshot(ctx, profile)
	return profile, nil
}

// GetProfile 读取档案：快照优先（乐观读），未命中回源 MySQL 并修复快照
func (s *ProfileService) GetProfile(ctx context.Context, id uint) (*model.Profile, error) {
	snapshot, err := s.SnapshotRepo.Load(ctx, id)
	if err != nil {
		logger.Log.Warn("snapshot read failed, falling back to database", zap.Uint("profileID", id), zap.Error(err))
	}
	if snapshot != nil {
		return snapshot, nil
	}

	profile, err := s.loadAuthoritative(id)
	if err != nil {
		return nil, err
	}
	s.writeSnapshot(ctx, profile)
	return profile, nil
}

// AddStars 星数变更，入参收敛到 [0,3]，档案不存在时返回 0
func (s *ProfileService) AddStars(ctx context.Context, profileID uint, n int) (int, error) {
	if n < 0 {
		n = 0
	}
	if n > 3 {
		n = 3
	}

	profile, err := s.loadAuthoritative(profileID)
	if err != nil {
		return 0, err
	}

	profile.TotalStars += n
	if err := s.persist(ctx, profile); err != nil {
		return profile.TotalStars, err
	}
	return profile.TotalStars, nil
}

// IncrementStreak 连续学习天数维护
// 同一天：无操作；恰好隔一天：+1；间隔两天及以上：重置为 1
func (s *ProfileService) IncrementStreak(ctx context.Context, profileID uint) (int, error) {
	profile, err := s.loadAuthoritative(profileID)
	if err != nil {
		return 0, err
	}

	today := s.now()
	if !profile.LastActiveDate.IsZero() {
		switch days := CalendarDaysBetween(profile.LastActiveDate, today); {
		case days == 0:
			return profile.CurrentStreak, nil
		case days == 1:
			profile.CurrentStreak++
		default:
			profile.CurrentStreak = 1
		}
	} else {
		profile.CurrentStreak = 1
	}

	if profile.CurrentStreak > profile.LongestStreak {
		profile.LongestStreak = profile.CurrentStreak
	}
	profile.LastActiveDate = today

	if err := s.persist(ctx, profile); err != nil {
		return profile.CurrentStreak, err
	}
	return profile.CurrentStreak, nil
}

// UpdateThemeLevel 主题解锁等级只升不降
func (s *ProfileService) UpdateThemeLevel(ctx context.Context, profileID uint, themeID string, level int) (int, error) {
	if level < util.MinThemeLevel {
		level = util.MinThemeLevel
	}
	if level > util.MaxThemeLevel {
		level = util.MaxThemeLevel
	}

	profile, err := s.loadAuthoritative(profileID)
	if err != nil {
		return 0, err
	}

	current := profile.ThemeLevel(themeID)
	if level <= current {
		return current, nil
	}

	if profile.CurrentLevels == nil {
		profile.CurrentLevels = map[string]int{}
	}
	profile.CurrentLevels[themeID] = level

	if err := s.persist(ctx, profile); err != nil {
		return level, err
	}
	return level, nil
}

// AddThemeStars 主题进度中的星数累加（提交时调用）
func (s *ProfileService) AddThemeStars(ctx context.Context, profileID uint, themeID string, stars int) error {
	if stars <= 0 {
		return nil
	}
	profile, err := s.loadAuthoritative(profileID)
	if err != nil {
		return err
	}
	if profile.ThemeProgress == nil {
		profile.ThemeProgress = map[string]model.ThemeProgress{}
	}
	tp := profile.ThemeProgress[themeID]
	tp.StarsEarned += stars
	profile.ThemeProgress[themeID] = tp
	return s.persist(ctx, profile)
}

// SetThemeCompletion 会话结束时回写主题完成度（completed 只增不减）
func (s *ProfileService) SetThemeCompletion(ctx context.Context, profileID uint, themeID string, completed, total int) error {
	profile, err := s.loadAuthoritative(profileID)
	if err != nil {
		return err
	}
	if profile.ThemeProgress == nil {
		profile.ThemeProgress = map[string]model.ThemeProgress{}
	}
	tp := profile.ThemeProgress[themeID]
	if completed > tp.ExercisesCompleted {
		tp.ExercisesCompleted = completed
	}
	tp.Total = total
	profile.ThemeProgress[themeID] = tp
	return s.persist(ctx, profile)
}

// ProfileOverview 面向 UI 的档案总览
type ProfileOverview struct {
	Profile           *model.Profile `json:"profile"`
	GlobalLevel       int            `json:"globalLevel"`
	StarsLevel        int            `json:"starsLevel"`
	StarsForNextLevel int            `json:"starsForNextLevel"`
	StreakAtRisk      bool           `json:"streakAtRisk"`
}

// Overview 汇总档案 + 派生的等级/连续学习状态
func (s *ProfileService) Overview(ctx context.Context, profileID uint) (*ProfileOverview, error) {
	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	themes, err := s.ExerciseRepo.DistinctThemeIDs()
	if err != nil {
		return nil, err
	}
	return &ProfileOverview{
		Profile:           profile,
		GlobalLevel:       s.Scoring.CalculateGlobalLevel(profile.CurrentLevels, themes),
		StarsLevel:        s.Scoring.LevelFromStars(profile.TotalStars),
		StarsForNextLevel: s.Scoring.StarsForNextLevel(profile.TotalStars),
		StreakAtRisk:      s.Scoring.IsStreakAtRisk(profile.LastActiveDate, s.now()),
	}, nil
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	Nickname   string `json:"nickname"`
	TotalStars int    `json:"totalStars"`
	AvatarID   string `json:"avatarId,omitempty"`
}

// GetLeaderboard 按总星数返回排行榜
func (s *ProfileService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	profiles, err := s.ProfileRepo.FindTopByStars(limit)
	if err != nil {
		return nil, err
	}
	leaderboard := make([]LeaderboardEntry, len(profiles))
	for i, p := range profiles {
		leaderboard[i] = LeaderboardEntry{
			Rank:       i + 1,
			Nickname:   p.Nickname,
			TotalStars: p.TotalStars,
			AvatarID:   p.AvatarID,
		}
	}
	return leaderboard, nil
}

// Export 导出存档：档案的纯投影，无副作用
func (s *ProfileService) Export(ctx context.Context, profileID uint) (*model.SaveGamePayload, error) {
	profile, err := s.loadAuthoritative(profileID)
	if err != nil {
		return nil, err
	}

	lastActive := ""
	if !profile.LastActiveDate.IsZero() {
		lastActive = profile.LastActiveDate.Format(util.DateFormat)
	}

	badges := make([]model.SavedBadge, len(profile.Badges))
	for i, b := range profile.Badges {
		badges[i] = model.SavedBadge{
			ID:          b.BadgeID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			EarnedAt:    b.EarnedAt,
		}
	}

	return &model.SaveGamePayload{
		Version:        model.SaveGameVersion,
		ExportedAt:     s.now(),
		Nickname:       profile.Nickname,
		AvatarID:       profile.AvatarID,
		TotalStars:     profile.TotalStars,
		CurrentStreak:  profile.CurrentStreak,
		LongestStreak:  profile.LongestStreak,
		LastActiveDate: lastActive,
		CurrentLevels:  copyLevels(profile.CurrentLevels),
		ThemeProgress:  copyProgress(profile.ThemeProgress),
		Badges:         badges,
	}, nil
}

// Import 导入存档：先校验后变更，校验失败零副作用；成功则整体替换档案状态
func (s *ProfileService) Import(ctx context.Context, profileID uint, payload *model.SaveGamePayload) (*model.Profile, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.loadAuthoritative(profileID)
	if err != nil {
		return nil, err
	}

	profile.Nickname = payload.Nickname
	profile.AvatarID = payload.AvatarID
	profile.TotalStars = payload.TotalStars
	profile.CurrentStreak = payload.CurrentStreak
	profile.LongestStreak = payload.LongestStreak
	if payload.LastActiveDate != "" {
		day, _ := time.ParseInLocation(util.DateFormat, payload.LastActiveDate, time.Local)
		profile.LastActiveDate = day
	} else {
		profile.LastActiveDate = time.Time{}
	}
	profile.CurrentLevels = copyLevels(payload.CurrentLevels)
	profile.ThemeProgress = copyProgress(payload.ThemeProgress)

	badges := make([]model.Badge, len(payload.Badges))
	for i, b := range payload.Badges {
		badges[i] = model.Badge{
			ProfileID:   profileID,
			BadgeID:     b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			EarnedAt:    b.EarnedAt,
		}
	}

	if err := s.ProfileRepo.ReplaceBadges(profileID, badges); err != nil {
		return nil, fmt.Errorf("%w: replace badges: %v", util.ErrPersistence, err)
	}
	if err := s.persist(ctx, profile); err != nil {
		return nil, err
	}

	return s.loadAuthoritative(profileID)
}

// ResetProfile 教师发起的整体重置：档案、结果日志、快照、通知全部删除
func (s *ProfileService) ResetProfile(ctx context.Context, profileID uint) error {
	if _, err := s.loadAuthoritative(profileID); err != nil {
		return err
	}
	if err := s.ResultRepo.DeleteByProfile(profileID); err != nil {
		return fmt.Errorf("%w: delete results: %v", util.ErrPersistence, err)
	}
	if err := s.ProfileRepo.Delete(profileID); err != nil {
		return fmt.Errorf("%w: delete profile: %v", util.ErrPersistence, err)
	}
	if err := s.SnapshotRepo.Delete(ctx, profileID); err != nil {
		logger.Log.Warn("failed to drop profile snapshot", zap.Uint("profileID", profileID), zap.Error(err))
	}
	if err := s.NotificationRepo.Purge(ctx, profileID); err != nil {
		logger.Log.Warn("failed to purge notifications", zap.Uint("profileID", profileID), zap.Error(err))
	}
	return nil
}

// loadAuthoritative 变更路径一律读权威层（MySQL），避免基于落后快照计算
func (s *ProfileService) loadAuthoritative(id uint) (*model.Profile, error) {
	profile, err := s.ProfileRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: load profile: %v", util.ErrPersistence, err)
	}
	return profile, nil
}

// persist 先写 MySQL 再覆盖快照
// 落库失败时仍写入乐观快照（会话继续使用内存值），错误传播给调用方
func (s *ProfileService) persist(ctx context.Context, profile *model.Profile) error {
	dbErr := s.ProfileRepo.Update(profile)
	s.writeSnapshot(ctx, profile)
	if dbErr != nil {
		logger.Log.Error("durable profile write failed", zap.Uint("profileID", profile.ID), zap.Error(dbErr))
		return fmt.Errorf("%w: update profile: %v", util.ErrPersistence, dbErr)
	}
	return nil
}

func (s *ProfileService) writeSnapshot(ctx context.Context, profile *model.Profile) {
	if err := s.SnapshotRepo.Save(ctx, profile); err != nil {
		logger.Log.Warn("snapshot write failed", zap.Uint("profileID", profile.ID), zap.Error(err))
	}
}

func copyLevels(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyProgress(src map[string]model.ThemeProgress) map[string]model.ThemeProgress {
	dst := make(map[string]model.ThemeProgress, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
