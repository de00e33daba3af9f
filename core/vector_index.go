package core

import "context"

// VectorIndex 是向量索引服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（vector/store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 纯粹的类型化门面，不承载任何业务逻辑
//
// 实现：
//   - vector.QdrantIndex 通过 gRPC 连接外部向量服务
//   - store.MemoryIndex 内存实现，用于测试/开发/原型
type VectorIndex interface {
	// Retrieve 按 ID 批量取点；不存在的 ID 被跳过，不报错
	Retrieve(ctx context.Context, collection string, ids []int64, withVectors bool) ([]Point, error)

	// Upsert 写入/覆盖点（同 ID 覆盖而非合并）
	Upsert(ctx context.Context, collection string, points []Point) error

	// DeletePoints 按 ID 删除点；不存在视为成功（幂等）
	DeletePoints(ctx context.Context, collection string, ids []int64) error

	// QueryNearest 最近邻查询，按相似度降序返回
	QueryNearest(ctx context.Context, q *NearestQuery) ([]ScoredPoint, error)

	// Scroll 按过滤条件遍历（无相似度排序，按 ID 升序）
	Scroll(ctx context.Context, collection string, filter *IndexFilter, limit int) ([]Point, error)

	// HasCollection 检查集合是否存在
	HasCollection(ctx context.Context, name string) (bool, error)

	// CreateCollection 创建集合
	CreateCollection(ctx context.Context, name string, dimension int, metric string) error

	// Close 关闭连接
	Close() error
}

// Point 是索引中的一个向量点。
type Point struct {
	ID      int64
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint 是最近邻查询的结果项。
type ScoredPoint struct {
	ID      int64
	Score   float64
	Payload map[string]any
}

// NearestQuery 是最近邻查询请求。
type NearestQuery struct {
	Collection string

	// Vector 查询向量
	Vector []float32

	// Filter 结构化过滤条件（可选）
	Filter *IndexFilter

	// Limit 返回的最大结果数
	Limit int

	// ScoreThreshold 最低分数门槛（可选；nil 表示不过滤）
	ScoreThreshold *float64
}

// MatchKind 是过滤谓词的匹配类型。
type MatchKind int

const (
	MatchKeyword MatchKind = iota // 字符串等值匹配（列表字段为包含匹配）
	MatchInteger                  // 整数等值匹配
)

// Condition 是单个字段谓词。
type Condition struct {
	Field   string
	Kind    MatchKind
	Keyword string
	Integer int64
}

// NewMatchKeyword 构造字符串等值谓词。
func NewMatchKeyword(field, keyword string) Condition {
	return Condition{Field: field, Kind: MatchKeyword, Keyword: keyword}
}

// NewMatchInteger 构造整数等值谓词。
func NewMatchInteger(field string, value int64) Condition {
	return Condition{Field: field, Kind: MatchInteger, Integer: value}
}

// IndexFilter 是结构化过滤条件：显式的谓词列表，而非松散的 map。
//
//   - Must：全部谓词必须成立（逻辑 AND）
//   - Should：至少一个谓词成立（min_should, min_count=1），关键词搜索使用
type IndexFilter struct {
	Must   []Condition
	Should []Condition
}

// Empty 判断过滤条件是否为空。
func (f *IndexFilter) Empty() bool {
	return f == nil || (len(f.Must) == 0 && len(f.Should) == 0)
}

// 距离度量常量。
const (
	MetricCosine       = "cosine"
	MetricEuclidean    = "euclidean"
	MetricInnerProduct = "inner_product"
)

// ValidateMetric 验证距离度量类型
func ValidateMetric(metric string) bool {
	switch metric {
	case MetricCosine, MetricEuclidean, MetricInnerProduct:
		return true
	default:
		return false
	}
}
