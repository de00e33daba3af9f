// Package filter 将食材/标签/分类查询参数构造成结构化的索引过滤条件。
//
// 谓词集合是封闭的：食材等值、食材数量、标签全匹配、分类等值，
// 全部通过显式的 AND 列表组合，构造期即完成校验。
package filter

import (
	"fmt"

	"github.com/recipehub/recipekit/core"
)

// QueryType 是食材匹配模式。
type QueryType string

const (
	// QueryTypeExact 精确匹配：候选的食材集合必须恰好等于请求集合
	// （数量相等 + 每个食材都在，顺序无关）。
	QueryTypeExact QueryType = "exact"

	// QueryTypePartial 部分匹配：每个请求食材都作为独立的等值谓词加入。
	// 注意：谓词在顶层按 AND 组合，因此实际语义是"每个请求食材都必须存在"，
	// 而非任意一个存在即可。沿用线上既成行为。
	QueryTypePartial QueryType = "partial"

	// QueryTypeNone 忽略食材参数。
	QueryTypeNone QueryType = "none"
)

// Valid 校验匹配模式取值。
func (t QueryType) Valid() bool {
	switch t {
	case QueryTypeExact, QueryTypePartial, QueryTypeNone:
		return true
	default:
		return false
	}
}

// Build 构造候选过滤条件。
//
//   - ingredients + queryType：见 QueryType 各常量说明
//   - labels：每个标签都是必须成立的等值谓词（全部匹配）
//   - category：单个等值谓词
//
// 所有谓词以逻辑 AND 组合；全部参数为空时返回 nil（不过滤）。
func Build(ingredients []string, queryType QueryType, labels []string, category string) (*core.IndexFilter, error) {
	if queryType == "" {
		queryType = QueryTypeNone
	}
	if !queryType.Valid() {
		return nil, core.NewDomainError(core.ModuleFilter, core.ErrorCodeInvalidInput,
			fmt.Sprintf("filter: unknown query type %q", queryType))
	}

	var must []core.Condition

	if len(ingredients) > 0 {
		switch queryType {
		case QueryTypeExact:
			// 先校验食材数量，再逐个等值匹配
			must = append(must, core.NewMatchInteger(core.PayloadIngredientCount, int64(len(ingredients))))
			for _, ing := range ingredients {
				must = append(must, core.NewMatchKeyword(core.PayloadIngredients, ing))
			}
		case QueryTypePartial:
			for _, ing := range ingredients {
				must = append(must, core.NewMatchKeyword(core.PayloadIngredients, ing))
			}
		case QueryTypeNone:
			// 忽略食材
		}
	}

	for _, label := range labels {
		must = append(must, core.NewMatchKeyword(core.PayloadLabel, label))
	}

	if category != "" {
		must = append(must, core.NewMatchKeyword(core.PayloadCategory, category))
	}

	if len(must) == 0 {
		return nil, nil
	}
	return &core.IndexFilter{Must: must}, nil
}
