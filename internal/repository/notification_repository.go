package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"lerntrainer_backend/internal/model"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	badgeQueueKeyPrefix    = "profile:notify:badges:"
	pendingLevelKeyPrefix  = "profile:notify:levelup:"
	notificationExpiration = 30 * 24 * time.Hour
)

// NotificationRepository 通知队列：新徽章 FIFO + 至多一个待展示的升级提示
type NotificationRepository struct {
	Redis *redis.Client
}

func NewNotificationRepository(rdb *redis.Client) *NotificationRepository {
	return &NotificationRepository{Redis: rdb}
}

func badgeQueueKey(profileID uint) string {
	return fmt.Sprintf("%s%d", badgeQueueKeyPrefix, profileID)
}

func pendingLevelKey(profileID uint) string {
	return fmt.Sprintf("%s%d", pendingLevelKeyPrefix, profileID)
}

// PushBadges 按稳定定义顺序入队
func (r *NotificationRepository) PushBadges(ctx context.Context, profileID uint, badges []model.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	key := badgeQueueKey(profileID)
	for _, b := range badges {
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		if err := r.Redis.RPush(ctx, key, data).Err(); err != nil {
			return err
		}
	}
	return r.Redis.Expire(ctx, key, notificationExpiration).Err()
}

// PendingBadges 查看当前队列（不出队）
func (r *NotificationRepository) PendingBadges(ctx context.Context, profileID uint) ([]model.Badge, error) {
	vals, err := r.Redis.LRange(ctx, badgeQueueKey(profileID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	badges := make([]model.Badge, 0, len(vals))
	for _, v := range vals {
		var b model.Badge
		if err := json.Unmarshal([]byte(v), &b); err != nil {
			continue
		}
		badges = append(badges, b)
	}
	return badges, nil
}

// DismissBadge 弹出队首（UI 确认一条通知）
func (r *NotificationRepository) DismissBadge(ctx context.Context, profileID uint) error {
	err := r.Redis.LPop(ctx, badgeQueueKey(profileID)).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// ClearBadges 清空队列
func (r *NotificationRepository) ClearBadges(ctx context.Context, profileID uint) error {
	return r.Redis.Del(ctx, badgeQueueKey(profileID)).Err()
}

// SetPendingLevelUp 覆盖待展示的升级提示（至多保留一个，新值覆盖旧值）
func (r *NotificationRepository) SetPendingLevelUp(ctx context.Context, profileID uint, level int) error {
	return r.Redis.Set(ctx, pendingLevelKey(profileID), strconv.Itoa(level), notificationExpiration).Err()
}

// PendingLevelUp 读取升级提示，0 表示没有
func (r *NotificationRepository) PendingLevelUp(ctx context.Context, profileID uint) (int, error) {
	val, err := r.Redis.Get(ctx, pendingLevelKey(profileID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	level, err := strconv.Atoi(val)
	if err != nil {
		return 0, nil
	}
	return level, nil
}

// ClearPendingLevelUp UI 确认后清除
func (r *NotificationRepository) ClearPendingLevelUp(ctx context.Context, profileID uint) error {
	return r.Redis.Del(ctx, pendingLevelKey(profileID)).Err()
}

// Purge 档案重置时移除全部通知状态
func (r *NotificationRepository) Purge(ctx context.Context, profileID uint) error {
	return r.Redis.Del(ctx, badgeQueueKey(profileID), pendingLevelKey(profileID)).Err()
}
