package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/recipehub/recipekit/core"
	"github.com/recipehub/recipekit/pkg/conv"
)

// MemoryIndex 是内存实现的向量索引，用于测试/开发/原型。
// 平替外部向量服务，支持最近邻查询、结构化过滤、scroll 遍历。
//
// 特点：
//   - 纯内存实现，进程重启后数据丢失
//   - 支持余弦相似度、欧氏距离、内积等距离度量
//   - 线程安全
//   - Scroll 与同分并列均按 ID 升序，结果确定
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	dimension int
	metric    string
	points    map[int64]core.Point
}

// NewMemoryIndex 创建内存向量索引实例。
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[string]*collection)}
}

func (m *MemoryIndex) Retrieve(_ context.Context, collectionName string, ids []int64, withVectors bool) ([]core.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collectionName]
	if !ok {
		return nil, core.ErrCollectionNotFound
	}

	out := make([]core.Point, 0, len(ids))
	for _, id := range ids {
		p, ok := col.points[id]
		if !ok {
			continue // 不存在的 ID 跳过
		}
		cp := core.Point{ID: p.ID, Payload: clonePayload(p.Payload)}
		if withVectors {
			cp.Vector = append([]float32(nil), p.Vector...)
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *MemoryIndex) Upsert(_ context.Context, collectionName string, points []core.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collectionName]
	if !ok {
		return core.ErrCollectionNotFound
	}

	for _, p := range points {
		if len(p.Vector) != col.dimension {
			return core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: vector dimension mismatch")
		}
		col.points[p.ID] = core.Point{
			ID:      p.ID,
			Vector:  append([]float32(nil), p.Vector...),
			Payload: clonePayload(p.Payload),
		}
	}
	return nil
}

func (m *MemoryIndex) DeletePoints(_ context.Context, collectionName string, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collectionName]
	if !ok {
		return nil // 集合不存在时删除视为成功（幂等）
	}
	for _, id := range ids {
		delete(col.points, id)
	}
	return nil
}

func (m *MemoryIndex) QueryNearest(_ context.Context, q *core.NearestQuery) ([]core.ScoredPoint, error) {
	if q == nil {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: nearest query is nil")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[q.Collection]
	if !ok {
		return []core.ScoredPoint{}, nil
	}
	if len(q.Vector) != col.dimension {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: vector dimension mismatch")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	scored := make([]core.ScoredPoint, 0, len(col.points))
	for _, p := range col.points {
		if !matchFilter(q.Filter, p.Payload) {
			continue
		}

		var score float64
		switch col.metric {
		case core.MetricEuclidean:
			// 欧氏距离转换为相似度分数（距离越小，分数越高）
			score = 1.0 / (1.0 + euclideanDistance(q.Vector, p.Vector))
		case core.MetricInnerProduct:
			score = innerProduct(q.Vector, p.Vector)
		default:
			score = cosineSimilarity(q.Vector, p.Vector)
		}

		if q.ScoreThreshold != nil && score < *q.ScoreThreshold {
			continue
		}
		scored = append(scored, core.ScoredPoint{ID: p.ID, Score: score, Payload: clonePayload(p.Payload)})
	}

	// 按分数降序，同分按 ID 升序，保证结果确定
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (m *MemoryIndex) Scroll(_ context.Context, collectionName string, filter *core.IndexFilter, limit int) ([]core.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collectionName]
	if !ok {
		return []core.Point{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	matched := make([]core.Point, 0)
	for _, p := range col.points {
		if !matchFilter(filter, p.Payload) {
			continue
		}
		matched = append(matched, core.Point{ID: p.ID, Payload: clonePayload(p.Payload)})
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryIndex) HasCollection(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *MemoryIndex) CreateCollection(_ context.Context, name string, dimension int, metric string) error {
	if dimension <= 0 {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: dimension must be positive")
	}
	if metric == "" {
		metric = core.MetricCosine
	}
	if !core.ValidateMetric(metric) {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: unknown metric "+metric)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return nil // 已存在视为成功
	}
	m.collections[name] = &collection{
		dimension: dimension,
		metric:    metric,
		points:    make(map[int64]core.Point),
	}
	return nil
}

func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*collection)
	return nil
}

// matchFilter 判断 payload 是否满足过滤条件：
// Must 全部成立，且 Should（如有）至少一个成立。
func matchFilter(f *core.IndexFilter, payload map[string]any) bool {
	if f.Empty() {
		return true
	}
	for _, cond := range f.Must {
		if !matchCondition(cond, payload) {
			return false
		}
	}
	if len(f.Should) > 0 {
		hit := false
		for _, cond := range f.Should {
			if matchCondition(cond, payload) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// matchCondition 对单个谓词求值。
// 字符串谓词对标量字段做等值匹配，对列表字段做包含匹配（与向量服务语义一致）。
func matchCondition(cond core.Condition, payload map[string]any) bool {
	v, ok := payload[cond.Field]
	if !ok {
		return false
	}
	switch cond.Kind {
	case core.MatchInteger:
		n, ok := conv.ToInt64(v)
		return ok && n == cond.Integer
	default:
		if s, ok := conv.ToString(v); ok {
			return s == cond.Keyword
		}
		for _, s := range conv.SliceAnyToString(v) {
			if s == cond.Keyword {
				return true
			}
		}
		return false
	}
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func euclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func innerProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// 确保 MemoryIndex 实现了 core.VectorIndex 接口
var _ core.VectorIndex = (*MemoryIndex)(nil)
