package core

import (
	"context"
	"time"
)

// RecipeStore 是关系存储的领域接口（只读门面）。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 引擎只读取：菜谱记录、用户交互集合、近期变更用户
//   - 写入（点赞/点踩等 CRUD）属于外部 API 层，不在此接口范围内
//
// 实现：
//   - store.PGRecipeStore 基于 PostgreSQL
//   - store.MemoryRecipeStore 内存实现，用于测试
type RecipeStore interface {
	// FetchRecipesByIDs 按 ID 批量取菜谱记录；不存在的 ID 被跳过
	FetchRecipesByIDs(ctx context.Context, ids []int64) ([]*RecipeRecord, error)

	// LikedRecipeIDs 获取用户点赞的菜谱 ID 集合
	LikedRecipeIDs(ctx context.Context, userID int64) ([]int64, error)

	// DislikedRecipeIDs 获取用户点踩的菜谱 ID 集合
	DislikedRecipeIDs(ctx context.Context, userID int64) ([]int64, error)

	// RecentlyChangedUserIDs 获取在 window 时间窗口内有交互变更的用户 ID（去重）
	RecentlyChangedUserIDs(ctx context.Context, window time.Duration) ([]int64, error)

	// Close 关闭连接/释放资源
	Close() error
}

// DirtySet 是待重算用户集合的领域接口。
//
// 语义：
//   - 仅成员关系，无顺序保证
//   - Mark/Clear 幂等，各操作独立原子（无跨成员事务）
//   - 进程外持久化，请求侧与调度器可并发读写
//
// 实现：
//   - store.RedisDirtySet 基于 Redis SET
//   - store.MemoryDirtySet 内存实现，用于测试
type DirtySet interface {
	// Mark 标记用户待重算
	Mark(ctx context.Context, userID int64) error

	// Members 返回当前全部待重算用户
	Members(ctx context.Context) ([]int64, error)

	// Clear 移除用户标记
	Clear(ctx context.Context, userID int64) error

	// Close 关闭连接/释放资源
	Close() error
}
