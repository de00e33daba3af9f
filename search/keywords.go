// Package search 提供关键词搜索（两阶段匹配合并）与结果过滤排序逻辑。
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/recipehub/recipekit/core"
	"github.com/recipehub/recipekit/pkg/conv"
)

// KeywordSearcher 是两阶段关键词搜索引擎。
//
// 阶段一（整串匹配）：四个字段中任一等于完整归一化串的记录；
// 阶段二（分词匹配）：任一字段等于任一单词的记录（词 × 字段 全组合 OR）。
// 合并时整串命中始终排在分词命中之前，按 ID 去重保序，截断到 limit。
//
// 这是 scroll 类操作，结果不带相似度分数。
type KeywordSearcher struct {
	Index core.VectorIndex

	// Collection 菜谱向量集合
	Collection string
}

// Search 按关键词搜索菜谱。
// 输入做 trim+小写归一化；空串立即返回空结果（不做全索引扫描）。
// 索引不可用时降级为空结果，不向上抛错。
func (s *KeywordSearcher) Search(ctx context.Context, inputText string, limit int) ([]*core.RecipeSummary, error) {
	text := strings.ToLower(strings.TrimSpace(inputText))
	if text == "" {
		return []*core.RecipeSummary{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	// 阶段一：整串匹配
	phraseConds := make([]core.Condition, 0, len(core.KeywordFields))
	for _, field := range core.KeywordFields {
		phraseConds = append(phraseConds, core.NewMatchKeyword(field, text))
	}
	phraseHits := s.scroll(ctx, &core.IndexFilter{Should: phraseConds}, limit)

	// 阶段二：分词匹配
	var wordConds []core.Condition
	for _, word := range strings.Fields(text) {
		for _, field := range core.KeywordFields {
			wordConds = append(wordConds, core.NewMatchKeyword(field, word))
		}
	}
	wordHits := s.scroll(ctx, &core.IndexFilter{Should: wordConds}, limit)

	// 合并去重：整串命中优先，保持首次出现顺序
	seen := make(map[int64]struct{}, limit)
	merged := make([]*core.RecipeSummary, 0, limit)
	for _, hit := range append(phraseHits, wordHits...) {
		if _, ok := seen[hit.ID]; ok {
			continue
		}
		seen[hit.ID] = struct{}{}
		merged = append(merged, summaryFromPayload(hit.ID, hit.Payload))
		if len(merged) >= limit {
			break
		}
	}
	return merged, nil
}

// scroll 执行单次过滤遍历；出错时降级为空结果。
func (s *KeywordSearcher) scroll(ctx context.Context, filter *core.IndexFilter, limit int) []core.Point {
	points, err := s.Index.Scroll(ctx, s.Collection, filter, limit)
	if err != nil {
		slog.Warn("keyword scroll failed, degrading to empty", "collection", s.Collection, "error", err)
		return nil
	}
	return points
}

// summaryFromPayload 从索引 payload 还原菜谱摘要。
func summaryFromPayload(id int64, payload map[string]any) *core.RecipeSummary {
	name, _ := conv.ToString(payload[core.PayloadName])
	category, _ := conv.ToString(payload[core.PayloadCategory])
	return &core.RecipeSummary{
		ID:          id,
		Name:        name,
		Category:    category,
		Labels:      conv.SliceAnyToString(payload[core.PayloadLabel]),
		Ingredients: conv.SliceAnyToString(payload[core.PayloadIngredients]),
	}
}
