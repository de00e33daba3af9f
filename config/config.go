// Package config 提供引擎的 YAML 配置加载。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/recipehub/recipekit/core"
)

// Config 是进程级配置（外部依赖地址 + 引擎参数）。
type Config struct {
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Engine   EngineConfig   `yaml:"engine"`
}

// QdrantConfig 向量索引连接参数。
type QdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PostgresConfig 关系存储连接参数。
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig 脏集合连接参数。
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// Duration 是支持 "3m" / "90s" 字面量的 time.Duration 包装。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// EngineConfig 是 core.EngineConfig 的 YAML 映射，零值字段走默认值。
type EngineConfig struct {
	Dimension             int      `yaml:"dimension"`
	UserCollection        string   `yaml:"user_collection"`
	RecipeCollection      string   `yaml:"recipe_collection"`
	Metric                string   `yaml:"metric"`
	TopNSimilarUsers      int      `yaml:"top_n_similar_users"`
	SimilarUserScoreFloor *float64 `yaml:"similar_user_score_floor"`
	CandidateMultiplier   int      `yaml:"candidate_multiplier"`
	RefreshInterval       Duration `yaml:"refresh_interval"`
	RefreshWindow         Duration `yaml:"refresh_window"`
	RefreshConcurrency    int      `yaml:"refresh_concurrency"`
}

// Default 返回默认配置（本机开发环境地址）。
func Default() *Config {
	return &Config{
		Qdrant:   QdrantConfig{Host: "localhost", Port: 6334},
		Postgres: PostgresConfig{DSN: "postgres://localhost:5432/recipes?sslmode=disable"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
	}
}

// Load 从 YAML 文件加载配置，未指定的字段保留 Default 的值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// EngineConfig 转换为领域层配置并填入默认值。
func (c *Config) EngineConfig() core.EngineConfig {
	return core.EngineConfig{
		Dimension:             c.Engine.Dimension,
		UserCollection:        c.Engine.UserCollection,
		RecipeCollection:      c.Engine.RecipeCollection,
		Metric:                c.Engine.Metric,
		TopNSimilarUsers:      c.Engine.TopNSimilarUsers,
		SimilarUserScoreFloor: c.Engine.SimilarUserScoreFloor,
		CandidateMultiplier:   c.Engine.CandidateMultiplier,
		RefreshInterval:       time.Duration(c.Engine.RefreshInterval),
		RefreshWindow:         time.Duration(c.Engine.RefreshWindow),
		RefreshConcurrency:    c.Engine.RefreshConcurrency,
	}.WithDefaults()
}
