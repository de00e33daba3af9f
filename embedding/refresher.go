package embedding

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/recipehub/recipekit/core"
)

// Refresher 是嵌入保鲜调度器：周期性地把交互发生变化的用户向量重算并写回索引。
//
// 每轮处理的用户集合 = 时间窗口内有交互变更的用户 ∪ 脏集合成员。
// 单个用户的重算是独立且幂等的（delete-then-upsert），
// 个别用户失败只记录日志，不中断整批；下一轮自然重试（至少一次语义）。
type Refresher struct {
	Store core.RecipeStore
	Dirty core.DirtySet
	Index core.VectorIndex
	Calc  *Calculator

	// UserCollection 用户向量所在集合
	UserCollection string

	// Dimension 向量维度（懒建集合时使用）
	Dimension int

	// Metric 距离度量（懒建集合时使用）
	Metric string

	// Interval 调度周期；Window 近期变更时间窗口；
	// MaxConcurrent 批内最大并发。零值回退到 core.DefaultEngineConfig。
	Interval      time.Duration
	Window        time.Duration
	MaxConcurrent int
}

// Run 启动周期调度，阻塞直到 ctx 取消。启动时先跑一轮。
func (r *Refresher) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("embedding refresher stopped")
			return
		}
	}
}

// RunOnce 执行单轮保鲜（供手动触发/测试使用）。
// 收集阶段的失败返回错误；单用户失败不计入返回值。
func (r *Refresher) RunOnce(ctx context.Context) error {
	userIDs, err := r.collectUserIDs(ctx)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	slog.Info("refreshing user embeddings", "count", len(userIDs))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.maxConcurrent())
	for _, userID := range userIDs {
		uid := userID
		eg.Go(func() error {
			if err := r.refreshUser(gctx, uid); err != nil {
				// 单用户失败不中断整批；脏标记保留，下一轮重试
				slog.Error("failed to refresh user embedding", "user_id", uid, "error", err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// collectUserIDs 取近期变更用户与脏集合的并集（去重）。
func (r *Refresher) collectUserIDs(ctx context.Context) ([]int64, error) {
	recent, err := r.Store.RecentlyChangedUserIDs(ctx, r.window())
	if err != nil {
		return nil, err
	}
	dirty, err := r.Dirty.Members(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(recent)+len(dirty))
	out := make([]int64, 0, len(recent)+len(dirty))
	for _, id := range recent {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range dirty {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// refreshUser 重算并写回单个用户的向量：
// 取交互集合 → 删除旧点（幂等）→ 重算（无信号代以零向量）→ upsert → 清除脏标记。
func (r *Refresher) refreshUser(ctx context.Context, userID int64) error {
	liked, err := r.Store.LikedRecipeIDs(ctx, userID)
	if err != nil {
		return err
	}
	disliked, err := r.Store.DislikedRecipeIDs(ctx, userID)
	if err != nil {
		return err
	}

	if err := r.Index.DeletePoints(ctx, r.UserCollection, []int64{userID}); err != nil && !core.IsNotFound(err) {
		return err
	}

	vec, ok, err := r.Calc.ComputeUserVector(ctx, liked, disliked)
	if err != nil {
		return err
	}
	if !ok {
		// 无信号用户仍写入零向量，保证其点可被取回（只是排序无意义）
		vec = r.Calc.ZeroVector()
	}

	if err := r.ensureCollection(ctx); err != nil {
		return err
	}

	point := core.Point{
		ID:     userID,
		Vector: vec,
		Payload: map[string]any{
			core.PayloadUserID:   userID,
			core.PayloadLiked:    liked,
			core.PayloadDisliked: disliked,
		},
	}
	if err := r.Index.Upsert(ctx, r.UserCollection, []core.Point{point}); err != nil {
		return err
	}

	return r.Dirty.Clear(ctx, userID)
}

// ensureCollection 懒建用户向量集合。
func (r *Refresher) ensureCollection(ctx context.Context) error {
	exists, err := r.Index.HasCollection(ctx, r.UserCollection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	metric := r.Metric
	if !core.ValidateMetric(metric) {
		metric = core.MetricCosine
	}
	return r.Index.CreateCollection(ctx, r.UserCollection, r.Dimension, metric)
}

func (r *Refresher) interval() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	return core.DefaultEngineConfig().RefreshInterval
}

func (r *Refresher) window() time.Duration {
	if r.Window > 0 {
		return r.Window
	}
	return core.DefaultEngineConfig().RefreshWindow
}

func (r *Refresher) maxConcurrent() int {
	if r.MaxConcurrent > 0 {
		return r.MaxConcurrent
	}
	return core.DefaultEngineConfig().RefreshConcurrency
}
