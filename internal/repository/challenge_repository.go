package repository

import (
	"context"
	"fmt"
	"lerntrainer_backend/internal/util"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const challengeExpiration = 48 * time.Hour

// ChallengeRepository 每日/奖励挑战的星数记录
// Key 形如 challenge:<profileID>:daily-challenge-2006-01-02，值为星数字符串
type ChallengeRepository struct {
	Redis *redis.Client
}

func NewChallengeRepository(rdb *redis.Client) *ChallengeRepository {
	return &ChallengeRepository{Redis: rdb}
}

func challengeKey(profileID uint, prefix string, date time.Time) string {
	return fmt.Sprintf("challenge:%d:%s%s", profileID, prefix, date.Format(util.DateFormat))
}

func (r *ChallengeRepository) SetDaily(ctx context.Context, profileID uint, date time.Time, stars int) error {
	return r.Redis.Set(ctx, challengeKey(profileID, util.DailyChallengePrefix, date), strconv.Itoa(stars), challengeExpiration).Err()
}

func (r *ChallengeRepository) GetDaily(ctx context.Context, profileID uint, date time.Time) (int, bool, error) {
	return r.get(ctx, challengeKey(profileID, util.DailyChallengePrefix, date))
}

func (r *ChallengeRepository) SetBonus(ctx context.Context, profileID uint, date time.Time, stars int) error {
	return r.Redis.Set(ctx, challengeKey(profileID, util.BonusChallengePrefix, date), strconv.Itoa(stars), challengeExpiration).Err()
}

func (r *ChallengeRepository) GetBonus(ctx context.Context, profileID uint, date time.Time) (int, bool, error) {
	return r.get(ctx, challengeKey(profileID, util.BonusChallengePrefix, date))
}

func (r *ChallengeRepository) get(ctx context.Context, key string) (int, bool, error) {
	val, err := r.Redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	stars, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, nil
	}
	return stars, true, nil
}
