package service

import (
	"context"
	"fmt"
	"lerntrainer_backend/internal/model"
	"lerntrainer_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// BadgeRepo 徽章定义读取
type BadgeRepo interface {
	ListDefinitions() ([]model.BadgeDefinition, error)
}

// NotificationRepo 通知队列（新徽章 FIFO + 待展示升级提示）
type NotificationRepo interface {
	PushBadges(ctx context.Context, profileID uint, badges []model.Badge) error
	PendingBadges(ctx context.Context, profileID uint) ([]model.Badge, error)
	DismissBadge(ctx context.Context, profileID uint) error
	ClearBadges(ctx context.Context, profileID uint) error
	SetPendingLevelUp(ctx context.Context, profileID uint, level int) error
	PendingLevelUp(ctx context.Context, profileID uint) (int, error)
	ClearPendingLevelUp(ctx context.Context, profileID uint) error
	Purge(ctx context.Context, profileID uint) error
}

// AchievementService 徽章规则解释器
// 规则是带阈值的标签化数据（totalStars/streak/themesCompleted），由这里统一解释
type AchievementService struct {
	BadgeRepo        BadgeRepo
	ProfileRepo      ProfileRepo
	NotificationRepo NotificationRepo

	now func() time.Time
}

func NewAchievementService(badgeRepo BadgeRepo, profileRepo ProfileRepo, notificationRepo NotificationRepo) *AchievementService {
	return &AchievementService{
		BadgeRepo:        badgeRepo,
		ProfileRepo:      profileRepo,
		NotificationRepo: notificationRepo,
		now:              time.Now,
	}
}

// BadgeProgressInfo 单个徽章的进度
type BadgeProgressInfo struct {
	Current    int `json:"current"`
	Target     int `json:"target"`
	Percentage int `json:"percentage"` // 0-100
}

// BadgeWithProgress 徽章 + 是否已获得 + 进度
type BadgeWithProgress struct {
	BadgeID     string            `json:"badgeId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
	Earned      bool              `json:"earned"`
	EarnedAt    *time.Time        `json:"earnedAt,omitempty"`
	Progress    BadgeProgressInfo `json:"progress"`
}

// ruleCurrent 按规则类型取档案上的当前值
// streak 用 longestStreak：连续记录一旦达标，徽章不应随中断被"收回"
func ruleCurrent(def *model.BadgeDefinition, profile *model.Profile) int {
	switch def.RuleKind {
	case model.RuleTotalStars:
		return profile.TotalStars
	case model.RuleStreak:
		return profile.LongestStreak
	case model.RuleThemesCompleted:
		return profile.CompletedThemes()
	default:
		return 0
	}
}

// GetAllBadgesWithProgress 返回全部徽章的获得状态与进度
// earned==true 时 percentage 恒为 100
func (s *AchievementService) GetAllBadgesWithProgress(profile *model.Profile) ([]BadgeWithProgress, error) {
	defs, err := s.BadgeRepo.ListDefinitions()
	if err != nil {
		return nil, err
	}

	result := make([]BadgeWithProgress, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		current := ruleCurrent(def, profile)

		earned := profile.HasBadge(def.BadgeID)
		var earnedAt *time.Time
		for _, b := range profile.Badges {
			if b.BadgeID == def.BadgeID {
				t := b.EarnedAt
				earnedAt = &t
				break
			}
		}

		percentage := 0
		if def.Threshold > 0 {
			percentage = current * 100 / def.Threshold
		}
		if percentage > 100 {
			percentage = 100
		}
		if percentage < 0 {
			percentage = 0
		}
		if earned {
			percentage = 100
		}

		shown := current
		if shown > def.Threshold {
			shown = def.Threshold
		}

		result = append(result, BadgeWithProgress{
			BadgeID:     def.BadgeID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			Earned:      earned,
			EarnedAt:    earnedAt,
			Progress: BadgeProgressInfo{
				Current:    shown,
				Target:     def.Threshold,
				Percentage: percentage,
			},
		})
	}
	return result, nil
}

// EvaluateNewBadges 在档案变更已提交后调用，重新读取最新档案进行评估
// 历史上按变更前捕获的旧值评估会漏发徽章，这里强制走新读
// 新获得的徽章按定义顺序追加持久化并入通知队列，返回本次新增
func (s *AchievementService) EvaluateNewBadges(ctx context.Context, profileID uint) ([]model.Badge, error) {
	profile, err := s.ProfileRepo.FindByID(profileID)
	if err != nil {
		return nil, fmt.Errorf("achievement evaluation: %w", err)
	}

	defs, err := s.BadgeRepo.ListDefinitions()
	if err != nil {
		return nil, err
	}

	var newBadges []model.Badge
	for i := range defs {
		def := &defs[i]
		if profile.HasBadge(def.BadgeID) {
			continue
		}
		if ruleCurrent(def, profile) >= def.Threshold {
			newBadges = append(newBadges, model.Badge{
				ProfileID:   profileID,
				BadgeID:     def.BadgeID,
				Name:        def.Name,
				Description: def.Description,
				Icon:        def.Icon,
				EarnedAt:    s.now(),
			})
		}
	}

	if len(newBadges) == 0 {
		return nil, nil
	}

	if err := s.ProfileRepo.AppendBadges(profileID, newBadges); err != nil {
		return nil, fmt.Errorf("append badges: %w", err)
	}

	if err := s.NotificationRepo.PushBadges(ctx, profileID, newBadges); err != nil {
		// 通知队列失败不影响徽章本体
		logger.Log.Error("failed to queue badge notifications", zap.Uint("profileID", profileID), zap.Error(err))
	}

	return newBadges, nil
}
