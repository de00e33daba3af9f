// Package embedding 负责用户向量的计算与后台保鲜。
package embedding

import (
	"context"

	"github.com/recipehub/recipekit/core"
)

// Calculator 从用户喜欢/不喜欢的菜谱向量推导用户向量。
//
// 结果 = mean(liked 向量) − mean(disliked 向量)（逐分量）。
// 无副作用：对取回向量的纯函数。
type Calculator struct {
	Index core.VectorIndex

	// RecipeCollection 菜谱向量所在集合
	RecipeCollection string

	// Dimension 向量维度
	Dimension int
}

// ComputeUserVector 计算用户向量。
//
//   - 无法解析到向量的菜谱 ID 被静默跳过（菜谱可能尚未嵌入，不算错误）
//   - liked/disliked 均无可解析向量时返回 ok=false（无信号），
//     由调用方决定是否代以零向量
func (c *Calculator) ComputeUserVector(ctx context.Context, liked, disliked []int64) (vec []float32, ok bool, err error) {
	likedMean, likedN, err := c.meanOf(ctx, liked)
	if err != nil {
		return nil, false, err
	}
	dislikedMean, dislikedN, err := c.meanOf(ctx, disliked)
	if err != nil {
		return nil, false, err
	}

	if likedN == 0 && dislikedN == 0 {
		return nil, false, nil
	}

	out := make([]float32, c.Dimension)
	for i := range out {
		var l, d float64
		if likedN > 0 {
			l = likedMean[i]
		}
		if dislikedN > 0 {
			d = dislikedMean[i]
		}
		out[i] = float32(l - d)
	}
	return out, true, nil
}

// ZeroVector 返回维度 D 的零向量，供无信号用户占位。
func (c *Calculator) ZeroVector() []float32 {
	return make([]float32, c.Dimension)
}

// meanOf 批量取回菜谱向量并求逐分量均值，返回均值与解析到的向量数。
func (c *Calculator) meanOf(ctx context.Context, ids []int64) ([]float64, int, error) {
	if len(ids) == 0 {
		return nil, 0, nil
	}

	points, err := c.Index.Retrieve(ctx, c.RecipeCollection, ids, true)
	if err != nil {
		return nil, 0, err
	}

	sum := make([]float64, c.Dimension)
	n := 0
	for _, p := range points {
		if len(p.Vector) != c.Dimension {
			continue // 维度不符的向量视为不可解析
		}
		for i, v := range p.Vector {
			sum[i] += float64(v)
		}
		n++
	}
	if n == 0 {
		return nil, 0, nil
	}

	for i := range sum {
		sum[i] /= float64(n)
	}
	return sum, n, nil
}
