package service

import (
	"context"
	"testing"

	"lerntrainer_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func starBadge(id string, threshold, sortOrder int) model.BadgeDefinition {
	return model.BadgeDefinition{
		BadgeID:   id,
		Name:      id,
		RuleKind:  model.RuleTotalStars,
		Threshold: threshold,
		SortOrder: sortOrder,
		Enabled:   true,
	}
}

func TestGetAllBadgesWithProgress(t *testing.T) {
	env := newTestEnv(t)
	env.badges.defs = []model.BadgeDefinition{
		starBadge("first-star", 1, 1),
		starBadge("star-collector", 25, 2),
		{BadgeID: "streak-3", Name: "streak-3", RuleKind: model.RuleStreak, Threshold: 3, SortOrder: 3, Enabled: true},
	}

	profile := &model.Profile{
		TotalStars:    10,
		LongestStreak: 1,
		Badges:        []model.Badge{{BadgeID: "first-star"}},
	}

	badges, err := env.achievement.GetAllBadgesWithProgress(profile)
	require.NoError(t, err)
	require.Len(t, badges, 3)

	// 已获得的徽章进度恒为 100
	assert.True(t, badges[0].Earned)
	assert.Equal(t, 100, badges[0].Progress.Percentage)

	assert.False(t, badges[1].Earned)
	assert.Equal(t, 40, badges[1].Progress.Percentage)
	assert.Equal(t, 10, badges[1].Progress.Current)
	assert.Equal(t, 25, badges[1].Progress.Target)

	assert.False(t, badges[2].Earned)
	assert.Equal(t, 33, badges[2].Progress.Percentage)

	// 百分比始终在 [0,100]
	for _, b := range badges {
		assert.GreaterOrEqual(t, b.Progress.Percentage, 0)
		assert.LessOrEqual(t, b.Progress.Percentage, 100)
	}
}

func TestGetAllBadgesWithProgressClampsOvershoot(t *testing.T) {
	env := newTestEnv(t)
	env.badges.defs = []model.BadgeDefinition{starBadge("first-star", 1, 1)}

	// 当前值远超阈值但徽章尚未入库：进度封顶而不是超过 100
	profile := &model.Profile{TotalStars: 50}

	badges, err := env.achievement.GetAllBadgesWithProgress(profile)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, 100, badges[0].Progress.Percentage)
	assert.Equal(t, 1, badges[0].Progress.Current)
}

func TestEvaluateNewBadges(t *testing.T) {
	env := newTestEnv(t)
	env.badges.defs = []model.BadgeDefinition{
		starBadge("first-star", 1, 1),
		starBadge("star-collector", 25, 2),
	}
	profile := env.createProfile(t, "Mia")
	ctx := context.Background()

	_, err := env.profile.AddStars(ctx, profile.ID, 3)
	require.NoError(t, err)

	newBadges, err := env.achievement.EvaluateNewBadges(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, newBadges, 1)
	assert.Equal(t, "first-star", newBadges[0].BadgeID)

	// 徽章已持久化，重复评估不再发放
	again, err := env.achievement.EvaluateNewBadges(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, again)

	// 新徽章进了通知队列
	pending, err := env.notifications.PendingBadges(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "first-star", pending[0].BadgeID)
}

func TestEvaluateNewBadgesUsesCommittedState(t *testing.T) {
	env := newTestEnv(t)
	env.badges.defs = []model.BadgeDefinition{starBadge("star-collector", 25, 1)}
	profile := env.createProfile(t, "Tom")
	ctx := context.Background()

	// 评估走的是变更后的重新读取：分多次提交到 25 星后必须发放
	for i := 0; i < 9; i++ {
		_, err := env.profile.AddStars(ctx, profile.ID, 3)
		require.NoError(t, err)
		newBadges, err := env.achievement.EvaluateNewBadges(ctx, profile.ID)
		require.NoError(t, err)
		if i < 8 {
			assert.Empty(t, newBadges)
		}
	}

	stored, err := env.profiles.FindByID(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 27, stored.TotalStars)
	assert.True(t, stored.HasBadge("star-collector"))
}

func TestEvaluateNewBadgesDefinitionOrder(t *testing.T) {
	env := newTestEnv(t)
	env.badges.defs = []model.BadgeDefinition{
		starBadge("first-star", 1, 1),
		starBadge("three-stars", 3, 2),
	}
	profile := env.createProfile(t, "Lena")
	ctx := context.Background()

	_, err := env.profile.AddStars(ctx, profile.ID, 3)
	require.NoError(t, err)

	// 一次变更同时满足两个阈值：按定义顺序一起发放
	newBadges, err := env.achievement.EvaluateNewBadges(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, newBadges, 2)
	assert.Equal(t, "first-star", newBadges[0].BadgeID)
	assert.Equal(t, "three-stars", newBadges[1].BadgeID)
}

func TestStreakBadgeUsesLongestStreak(t *testing.T) {
	env := newTestEnv(t)
	env.badges.defs = []model.BadgeDefinition{
		{BadgeID: "streak-3", Name: "streak-3", RuleKind: model.RuleStreak, Threshold: 3, SortOrder: 1, Enabled: true},
	}
	profile := env.createProfile(t, "Ben")
	ctx := context.Background()

	stored, err := env.profiles.FindByID(profile.ID)
	require.NoError(t, err)
	stored.CurrentStreak = 1
	stored.LongestStreak = 5
	require.NoError(t, env.profiles.Update(stored))

	// 连续记录中断后徽章依然按最长纪录发放
	newBadges, err := env.achievement.EvaluateNewBadges(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, newBadges, 1)
	assert.Equal(t, "streak-3", newBadges[0].BadgeID)
}

func TestThemesCompletedBadge(t *testing.T) {
	env := newTestEnv(t)
	env.badges.defs = []model.BadgeDefinition{
		{BadgeID: "theme-1", Name: "theme-1", RuleKind: model.RuleThemesCompleted, Threshold: 1, SortOrder: 1, Enabled: true},
	}
	profile := env.createProfile(t, "Emma")
	ctx := context.Background()

	require.NoError(t, env.profile.SetThemeCompletion(ctx, profile.ID, "colors", 3, 5))
	newBadges, err := env.achievement.EvaluateNewBadges(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, newBadges)

	require.NoError(t, env.profile.SetThemeCompletion(ctx, profile.ID, "colors", 5, 5))
	newBadges, err = env.achievement.EvaluateNewBadges(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, newBadges, 1)
	assert.Equal(t, "theme-1", newBadges[0].BadgeID)
}
