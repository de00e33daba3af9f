package store

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/recipehub/recipekit/core"
)

// DefaultDirtySetKey 是待重算用户集合的默认 Redis key。
const DefaultDirtySetKey = "users_to_update"

// RedisDirtySet 是 Redis SET 实现的 DirtySet。
// 生产环境使用：进程外持久化，请求侧与调度器并发 mark/clear 不会丢更新
// （SADD/SREM/SMEMBERS 各自原子）。
type RedisDirtySet struct {
	client *redis.Client
	key    string
}

// NewRedisDirtySet 创建 Redis DirtySet。key 为空时使用 DefaultDirtySetKey。
func NewRedisDirtySet(addr string, db int, key string) (*RedisDirtySet, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	if key == "" {
		key = DefaultDirtySetKey
	}
	return &RedisDirtySet{client: client, key: key}, nil
}

func (s *RedisDirtySet) Mark(ctx context.Context, userID int64) error {
	return s.client.SAdd(ctx, s.key, userID).Err()
}

func (s *RedisDirtySet) Members(ctx context.Context) ([]int64, error) {
	members, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			// 非数字成员属于脏数据，跳过
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *RedisDirtySet) Clear(ctx context.Context, userID int64) error {
	return s.client.SRem(ctx, s.key, userID).Err()
}

func (s *RedisDirtySet) Close() error {
	return s.client.Close()
}

// 确保 RedisDirtySet 实现了 core.DirtySet 接口
var _ core.DirtySet = (*RedisDirtySet)(nil)
