package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"lerntrainer_backend/internal/model"
	"lerntrainer_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	logger.Log = zap.NewNop()
}

// cloneProfile 模拟数据库读：每次返回独立副本
func cloneProfile(p *model.Profile) *model.Profile {
	cp := *p
	cp.CurrentLevels = copyLevels(p.CurrentLevels)
	cp.ThemeProgress = copyProgress(p.ThemeProgress)
	cp.Badges = append([]model.Badge(nil), p.Badges...)
	return &cp
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[uint]*model.Profile
	nextID   uint

	failUpdate error
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: map[uint]*model.Profile{}, nextID: 1}
}

func (r *memProfileRepo) Create(profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.ID = r.nextID
	r.nextID++
	r.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (r *memProfileRepo) NicknameExists(nickname string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProfileRepo) FindByID(id uint) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneProfile(p), nil
}

func (r *memProfileRepo) Update(profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	stored, ok := r.profiles[profile.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	badges := stored.Badges
	r.profiles[profile.ID] = cloneProfile(profile)
	// Update 走 Omit("Badges")，徽章只通过 AppendBadges/ReplaceBadges 变更
	r.profiles[profile.ID].Badges = badges
	return nil
}

func (r *memProfileRepo) AppendBadges(profileID uint, badges []model.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[profileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Badges = append(p.Badges, badges...)
	return nil
}

func (r *memProfileRepo) ReplaceBadges(profileID uint, badges []model.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[profileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Badges = append([]model.Badge(nil), badges...)
	return nil
}

func (r *memProfileRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, id)
	return nil
}

func (r *memProfileRepo) FindTopByStars(limit int) ([]model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, *cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalStars > out[j].TotalStars })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[uint]*model.Profile

	failSave error
	failLoad error
}

func newMemSnapshotRepo() *memSnapshotRepo {
	return &memSnapshotRepo{snapshots: map[uint]*model.Profile{}}
}

func (r *memSnapshotRepo) Save(ctx context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	r.snapshots[profile.ID] = cloneProfile(profile)
	return nil
}

func (r *memSnapshotRepo) Load(ctx context.Context, profileID uint) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLoad != nil {
		return nil, r.failLoad
	}
	p, ok := r.snapshots[profileID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

func (r *memSnapshotRepo) Delete(ctx context.Context, profileID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, profileID)
	return nil
}

type memResultRepo struct {
	mu      sync.Mutex
	results []model.ExerciseResult

	failCreate error
	creates    int
}

func newMemResultRepo() *memResultRepo {
	return &memResultRepo{}
}

func (r *memResultRepo) Create(result *model.ExerciseResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.failCreate != nil {
		return r.failCreate
	}
	r.results = append(r.results, *result)
	return nil
}

func (r *memResultRepo) HasCompleted(profileID uint, exerciseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.ProfileID == profileID && res.ExerciseID == exerciseID && res.Correct {
			return true, nil
		}
	}
	return false, nil
}

func (r *memResultRepo) CompletedExerciseIDs(profileID uint, themeID string, level int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, res := range r.results {
		if res.ProfileID == profileID && res.ThemeID == themeID && res.Level == level && res.Correct && !seen[res.ExerciseID] {
			seen[res.ExerciseID] = true
			ids = append(ids, res.ExerciseID)
		}
	}
	return ids, nil
}

func (r *memResultRepo) CompletedByTheme(profileID uint, themeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	for _, res := range r.results {
		if res.ProfileID == profileID && res.ThemeID == themeID && res.Correct {
			seen[res.ExerciseID] = true
		}
	}
	return int64(len(seen)), nil
}

func (r *memResultRepo) DeleteByProfile(profileID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.results[:0]
	for _, res := range r.results {
		if res.ProfileID != profileID {
			kept = append(kept, res)
		}
	}
	r.results = kept
	return nil
}

type memExerciseRepo struct {
	mu        sync.Mutex
	exercises []model.Exercise
}

func newMemExerciseRepo(exercises ...model.Exercise) *memExerciseRepo {
	return &memExerciseRepo{exercises: exercises}
}

func (r *memExerciseRepo) FindByThemeAndLevel(themeID string, level int, areaID string) ([]model.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Exercise
	for _, ex := range r.exercises {
		if ex.ThemeID == themeID && ex.Level == level && (areaID == "" || ex.AreaID == areaID) {
			out = append(out, ex)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Difficulty < out[j].Difficulty })
	return out, nil
}

func (r *memExerciseRepo) FindByExerciseID(exerciseID string) (*model.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.exercises {
		if r.exercises[i].ExerciseID == exerciseID {
			ex := r.exercises[i]
			return &ex, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memExerciseRepo) CountByTheme(themeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, ex := range r.exercises {
		if ex.ThemeID == themeID {
			n++
		}
	}
	return n, nil
}

func (r *memExerciseRepo) DistinctThemeIDs() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, ex := range r.exercises {
		if !seen[ex.ThemeID] {
			seen[ex.ThemeID] = true
			ids = append(ids, ex.ThemeID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memExerciseRepo) Upsert(exercise *model.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.exercises {
		if r.exercises[i].ExerciseID == exercise.ExerciseID {
			r.exercises[i] = *exercise
			return nil
		}
	}
	r.exercises = append(r.exercises, *exercise)
	return nil
}

type memBadgeRepo struct {
	defs []model.BadgeDefinition
}

func (r *memBadgeRepo) ListDefinitions() ([]model.BadgeDefinition, error) {
	return append([]model.BadgeDefinition(nil), r.defs...), nil
}

type memNotificationRepo struct {
	mu             sync.Mutex
	badges         map[uint][]model.Badge
	pendingLevelUp map[uint]int
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{badges: map[uint][]model.Badge{}, pendingLevelUp: map[uint]int{}}
}

func (r *memNotificationRepo) PushBadges(ctx context.Context, profileID uint, badges []model.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.badges[profileID] = append(r.badges[profileID], badges...)
	return nil
}

func (r *memNotificationRepo) PendingBadges(ctx context.Context, profileID uint) ([]model.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Badge(nil), r.badges[profileID]...), nil
}

func (r *memNotificationRepo) DismissBadge(ctx context.Context, profileID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q := r.badges[profileID]; len(q) > 0 {
		r.badges[profileID] = q[1:]
	}
	return nil
}

func (r *memNotificationRepo) ClearBadges(ctx context.Context, profileID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.badges, profileID)
	return nil
}

func (r *memNotificationRepo) SetPendingLevelUp(ctx context.Context, profileID uint, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingLevelUp[profileID] = level
	return nil
}

func (r *memNotificationRepo) PendingLevelUp(ctx context.Context, profileID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingLevelUp[profileID], nil
}

func (r *memNotificationRepo) ClearPendingLevelUp(ctx context.Context, profileID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pendingLevelUp, profileID)
	return nil
}

func (r *memNotificationRepo) Purge(ctx context.Context, profileID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.badges, profileID)
	delete(r.pendingLevelUp, profileID)
	return nil
}

var errStorage = errors.New("storage unavailable")

// testEnv 把全套服务接到内存假件上
type testEnv struct {
	profiles      *memProfileRepo
	snapshots     *memSnapshotRepo
	results       *memResultRepo
	exercises     *memExerciseRepo
	badges        *memBadgeRepo
	notifications *memNotificationRepo

	scoring     *ScoringService
	achievement *AchievementService
	profile     *ProfileService
	session     *SessionService
}

func newTestEnv(t *testing.T, exercises ...model.Exercise) *testEnv {
	t.Helper()
	env := &testEnv{
		profiles:      newMemProfileRepo(),
		snapshots:     newMemSnapshotRepo(),
		results:       newMemResultRepo(),
		exercises:     newMemExerciseRepo(exercises...),
		badges:        &memBadgeRepo{},
		notifications: newMemNotificationRepo(),
	}
	env.scoring = NewScoringService(DefaultStarsPerLevel)
	env.achievement = NewAchievementService(env.badges, env.profiles, env.notifications)
	env.profile = NewProfileService(env.profiles, env.snapshots, env.results, env.notifications, env.exercises, env.scoring)
	env.session = NewSessionService(env.exercises, env.results, env.profile, env.achievement, env.notifications, env.scoring)
	return env
}

func (env *testEnv) createProfile(t *testing.T, nickname string) *model.Profile {
	t.Helper()
	profile, err := env.profile.CreateProfile(context.Background(), CreateProfileRequest{Nickname: nickname})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return profile
}

// fixedTime 固定所有服务的时钟
func (env *testEnv) fixedTime(at time.Time) {
	clock := func() time.Time { return at }
	env.profile.now = clock
	env.session.now = clock
	env.achievement.now = clock
}

func exercisesForLevel(themeID string, level, n int) []model.Exercise {
	out := make([]model.Exercise, n)
	for i := 0; i < n; i++ {
		out[i] = model.Exercise{
			ExerciseID: themeID + "-l" + string(rune('0'+level)) + "-e" + string(rune('a'+i)),
			Type:       "multiple-choice",
			ThemeID:    themeID,
			Level:      level,
			Difficulty: 1 + i%3,

			FeedbackCorrect:   "Super gemacht!",
			FeedbackIncorrect: "Versuch es noch einmal!",
		}
	}
	return out
}
