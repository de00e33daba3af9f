// Package recipekit 是一个菜谱推荐引擎工具包（Recipe Recommender Kit）。
//
// 设计要点：
// - Interface-first: 向量索引 / 关系存储 / 脏集合全部面向 core 接口编程，内存实现与生产实现可互换
// - 降级优先: 索引不可用、冷用户、索引与库不同步等异常路径统一向空结果降级，绝不让读路径 500
// - 保鲜解耦: 用户向量由后台 Refresher 周期重算（delete-then-upsert 幂等），读路径只消费既有向量
package recipekit

import "github.com/recipehub/recipekit/core"

// 轻量 facade：便于用户直接 import "recipekit" 使用核心抽象。
type VectorIndex = core.VectorIndex
type RecipeStore = core.RecipeStore
type DirtySet = core.DirtySet
type EngineConfig = core.EngineConfig
type RecipeRecord = core.RecipeRecord
type RecipeSummary = core.RecipeSummary
type ScoredRecipe = core.ScoredRecipe

var DefaultEngineConfig = core.DefaultEngineConfig
