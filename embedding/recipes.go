package embedding

import (
	"context"

	"github.com/recipehub/recipekit/core"
)

// RecipeVectors 维护菜谱向量点：重嵌入写入与下架删除。
// 与 Refresher 共用索引门面，但生命周期独立（由离线嵌入任务驱动）。
type RecipeVectors struct {
	Index core.VectorIndex

	// Collection 菜谱向量集合
	Collection string

	// Dimension / Metric 懒建集合时使用
	Dimension int
	Metric    string
}

// Store 写入/覆盖单个菜谱向量点，payload 携带搜索所需的全部字段。
func (r *RecipeVectors) Store(ctx context.Context, recipe *core.RecipeRecord, vector []float32) error {
	if err := r.ensureCollection(ctx); err != nil {
		return err
	}
	point := core.Point{
		ID:     recipe.ID,
		Vector: vector,
		Payload: map[string]any{
			core.PayloadName:            recipe.Name,
			core.PayloadCategory:        recipe.Category,
			core.PayloadLabel:           recipe.Labels,
			core.PayloadIngredients:     recipe.Ingredients,
			core.PayloadIngredientCount: int64(len(recipe.Ingredients)),
		},
	}
	return r.Index.Upsert(ctx, r.Collection, []core.Point{point})
}

// Delete 删除菜谱向量点（幂等）。
func (r *RecipeVectors) Delete(ctx context.Context, recipeID int64) error {
	return r.Index.DeletePoints(ctx, r.Collection, []int64{recipeID})
}

func (r *RecipeVectors) ensureCollection(ctx context.Context) error {
	exists, err := r.Index.HasCollection(ctx, r.Collection)
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
	return r.Index.CreateCollection(ctx, r.Collection, r.Dimension, metric)
}
