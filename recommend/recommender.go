// Package recommend 实现基于向量相似度 + 相似用户协同调整的菜谱推荐。
package recommend

import (
	"context"
	"log/slog"
	"sort"

	"github.com/recipehub/recipekit/core"
	"github.com/recipehub/recipekit/filter"
	"github.com/recipehub/recipekit/pkg/conv"
)

// Request 是一次推荐请求的全部参数。
type Request struct {
	// UserID 目标用户
	UserID int64

	// Limit 最终返回条数，<=0 时取 10
	Limit int

	// Ingredients / QueryType / Labels / Category 候选过滤参数，
	// 语义见 filter.Build
	Ingredients []string
	QueryType   filter.QueryType
	Labels      []string
	Category    string

	// MinScore / MaxScore 可选的原始相似度分数带：
	// 处于带外的候选在协同调整前被丢弃。nil 表示不限。
	MinScore *float64
	MaxScore *float64
}

// similarUser 是一个带相似度与交互集合的邻居用户。
type similarUser struct {
	id       int64
	score    float64
	liked    map[int64]struct{}
	disliked map[int64]struct{}
}

// Recommender 是推荐引擎门面。
//
// 流程：取用户向量 → 找相似用户 → 过滤式近邻召回候选（limit × multiplier 放大）
// → 按相似用户的喜好对候选分数做 ± 调整 → 稳定排序截断 → 回源补全菜谱记录。
//
// 降级约定：目标用户无向量（冷用户）、索引不可用、回源补全失败时
// 返回空结果而非错误（宁缺毋断）；仅过滤参数非法会上抛。
type Recommender struct {
	Index core.VectorIndex
	Store core.RecipeStore

	// Config 零值字段回退到 core.DefaultEngineConfig
	Config core.EngineConfig
}

// Recommend 执行一次推荐。
func (r *Recommender) Recommend(ctx context.Context, req *Request) ([]*core.ScoredRecipe, error) {
	cfg := r.Config.WithDefaults()

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	// 过滤参数在任何索引访问前校验，非法输入要立即报错而不是降级
	candidateFilter, err := filter.Build(req.Ingredients, req.QueryType, req.Labels, req.Category)
	if err != nil {
		return nil, err
	}

	userVec, ok := r.userVector(ctx, cfg, req.UserID)
	if !ok {
		// 冷用户：尚无向量，没有任何可比较的信号
		return []*core.ScoredRecipe{}, nil
	}

	neighbors := r.similarUsers(ctx, cfg, req.UserID, userVec)

	candidates, err := r.Index.QueryNearest(ctx, &core.NearestQuery{
		Collection:     cfg.RecipeCollection,
		Vector:         userVec,
		Filter:         candidateFilter,
		Limit:          limit * cfg.CandidateMultiplier,
		ScoreThreshold: req.MinScore,
	})
	if err != nil {
		slog.Warn("candidate query failed, degrading to empty",
			"user_id", req.UserID, "error", err)
		return []*core.ScoredRecipe{}, nil
	}
	candidates = applyScoreBand(candidates, req.MinScore, req.MaxScore)
	if len(candidates) == 0 {
		return []*core.ScoredRecipe{}, nil
	}

	scored := adjustScores(candidates, neighbors)

	// 稳定排序保证同分候选维持索引返回顺序
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	return r.hydrate(ctx, scored), nil
}

// userVector 取目标用户向量；点不存在或索引不可用都按无向量处理。
func (r *Recommender) userVector(ctx context.Context, cfg core.EngineConfig, userID int64) ([]float32, bool) {
	points, err := r.Index.Retrieve(ctx, cfg.UserCollection, []int64{userID}, true)
	if err != nil {
		if !core.IsNotFound(err) {
			slog.Warn("user vector retrieve failed, degrading to empty",
				"user_id", userID, "error", err)
		}
		return nil, false
	}
	if len(points) == 0 || len(points[0].Vector) == 0 {
		return nil, false
	}
	return points[0].Vector, true
}

// similarUsers 按向量近邻找 TopN 相似用户（排除目标用户本人），
// 交互集合直接从用户点 payload 解码，不回源关系存储。
// 查询失败视为没有相似用户，推荐退化为纯向量相似度排序。
func (r *Recommender) similarUsers(ctx context.Context, cfg core.EngineConfig, userID int64, userVec []float32) []similarUser {
	// 多取一个，目标用户自身通常就是最近邻
	hits, err := r.Index.QueryNearest(ctx, &core.NearestQuery{
		Collection:     cfg.UserCollection,
		Vector:         userVec,
		Limit:          cfg.TopNSimilarUsers + 1,
		ScoreThreshold: cfg.SimilarUserScoreFloor,
	})
	if err != nil {
		slog.Warn("similar user query failed, skipping collaborative adjustment",
			"user_id", userID, "error", err)
		return nil
	}

	out := make([]similarUser, 0, cfg.TopNSimilarUsers)
	for _, hit := range hits {
		if hit.ID == userID {
			continue
		}
		if len(out) >= cfg.TopNSimilarUsers {
			break
		}
		out = append(out, similarUser{
			id:       hit.ID,
			score:    hit.Score,
			liked:    toIDSet(hit.Payload[core.PayloadLiked]),
			disliked: toIDSet(hit.Payload[core.PayloadDisliked]),
		})
	}
	return out
}

// applyScoreBand 丢弃原始相似度在分数带外的候选。
// 下界通常已由索引侧 ScoreThreshold 处理，这里兜底不支持阈值的实现。
func applyScoreBand(candidates []core.ScoredPoint, min, max *float64) []core.ScoredPoint {
	if min == nil && max == nil {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if min != nil && c.Score < *min {
			continue
		}
		if max != nil && c.Score > *max {
			continue
		}
		out = append(out, c)
	}
	return out
}

// adjustScores 对每个候选做协同调整：
// 相似用户喜欢该候选则加其相似度分，不喜欢则减。
func adjustScores(candidates []core.ScoredPoint, neighbors []similarUser) []*core.ScoredRecipe {
	out := make([]*core.ScoredRecipe, 0, len(candidates))
	for _, c := range candidates {
		final := c.Score
		for _, n := range neighbors {
			if _, ok := n.liked[c.ID]; ok {
				final += n.score
			}
			if _, ok := n.disliked[c.ID]; ok {
				final -= n.score
			}
		}
		out = append(out, &core.ScoredRecipe{
			Recipe:     &core.RecipeRecord{ID: c.ID},
			Score:      c.Score,
			FinalScore: final,
		})
	}
	return out
}

// hydrate 回源关系存储补全菜谱记录，保持已排序顺序；
// 存储中缺失的候选（索引与库不同步）跳过并告警；
// 存储整体故障降级为空结果，不让读路径报错。
func (r *Recommender) hydrate(ctx context.Context, scored []*core.ScoredRecipe) []*core.ScoredRecipe {
	ids := make([]int64, 0, len(scored))
	for _, s := range scored {
		ids = append(ids, s.Recipe.ID)
	}

	records, err := r.Store.FetchRecipesByIDs(ctx, ids)
	if err != nil {
		slog.Warn("recipe hydration failed, degrading to empty", "error", err)
		return []*core.ScoredRecipe{}
	}
	byID := make(map[int64]*core.RecipeRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	out := make([]*core.ScoredRecipe, 0, len(scored))
	for _, s := range scored {
		rec, ok := byID[s.Recipe.ID]
		if !ok {
			slog.Warn("recipe missing in store, dropped from result", "recipe_id", s.Recipe.ID)
			continue
		}
		s.Recipe = rec
		out = append(out, s)
	}
	return out
}

func toIDSet(v any) map[int64]struct{} {
	ids := conv.SliceAnyToInt64(v)
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
