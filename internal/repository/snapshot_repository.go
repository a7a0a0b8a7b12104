package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"lerntrainer_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

const profileSnapshotKeyPrefix = "profile:snapshot:"

// SnapshotRepository 快速层：整档案快照，每次变更整体覆盖
// UI 读取优先走快照（乐观读），落后于 MySQL 不超过一次写入
type SnapshotRepository struct {
	Redis *redis.Client
}

func NewSnapshotRepository(rdb *redis.Client) *SnapshotRepository {
	return &SnapshotRepository{Redis: rdb}
}

func snapshotKey(profileID uint) string {
	return fmt.Sprintf("%s%d", profileSnapshotKeyPrefix, profileID)
}

// Save 原子覆盖快照
func (r *SnapshotRepository) Save(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, snapshotKey(profile.ID), data, 7*24*time.Hour).Err()
}

// Load 读取快照，不存在时返回 redis.Nil 包装前的 (nil, nil)
func (r *SnapshotRepository) Load(ctx context.Context, profileID uint) (*model.Profile, error) {
	val, err := r.Redis.Get(ctx, snapshotKey(profileID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var profile model.Profile
	if err := json.Unmarshal([]byte(val), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, profileID uint) error {
	return r.Redis.Del(ctx, snapshotKey(profileID)).Err()
}
