package core

import "time"

// EngineConfig 是推荐/搜索引擎的运行参数，集中提供默认值。
// 所有字段零值时均回退到默认值，调用方可只覆盖关心的项。
type EngineConfig struct {
	// Dimension 向量维度
	Dimension int

	// UserCollection / RecipeCollection 索引集合名
	UserCollection   string
	RecipeCollection string

	// Metric 距离度量
	Metric string

	// TopNSimilarUsers 相似用户查询的 TopN
	TopNSimilarUsers int

	// SimilarUserScoreFloor 相似用户最低分数门槛。
	// 指针用于区分"未设置"（nil，回退默认 -1.0，等价于不过滤）
	// 与显式配置的 0.0。
	SimilarUserScoreFloor *float64

	// CandidateMultiplier 候选集放大倍数（候选数 = limit * multiplier）
	CandidateMultiplier int

	// RefreshInterval 嵌入刷新调度周期
	RefreshInterval time.Duration

	// RefreshWindow 近期变更用户的时间窗口
	RefreshWindow time.Duration

	// RefreshConcurrency 刷新批次内的最大并发数
	RefreshConcurrency int
}

// DefaultEngineConfig 返回默认配置。
// 维度与集合名沿用既有索引的配置。
func DefaultEngineConfig() EngineConfig {
	floor := -1.0
	return EngineConfig{
		Dimension:             4096,
		UserCollection:        "user_embeddings",
		RecipeCollection:      "text_embeddings",
		Metric:                MetricCosine,
		TopNSimilarUsers:      3,
		SimilarUserScoreFloor: &floor,
		CandidateMultiplier:   10,
		RefreshInterval:       3 * time.Minute,
		RefreshWindow:         3 * time.Minute,
		RefreshConcurrency:    4,
	}
}

// WithDefaults 对零值字段填入默认值。
func (c EngineConfig) WithDefaults() EngineConfig {
	def := DefaultEngineConfig()
	if c.Dimension <= 0 {
		c.Dimension = def.Dimension
	}
	if c.UserCollection == "" {
		c.UserCollection = def.UserCollection
	}
	if c.RecipeCollection == "" {
		c.RecipeCollection = def.RecipeCollection
	}
	if !ValidateMetric(c.Metric) {
		c.Metric = def.Metric
	}
	if c.TopNSimilarUsers <= 0 {
		c.TopNSimilarUsers = def.TopNSimilarUsers
	}
	if c.SimilarUserScoreFloor == nil {
		c.SimilarUserScoreFloor = def.SimilarUserScoreFloor
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = def.CandidateMultiplier
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = def.RefreshInterval
	}
	if c.RefreshWindow <= 0 {
		c.RefreshWindow = def.RefreshWindow
	}
	if c.RefreshConcurrency <= 0 {
		c.RefreshConcurrency = def.RefreshConcurrency
	}
	return c
}
