package search

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/recipehub/recipekit/core"
	"github.com/recipehub/recipekit/pkg/conv"
	"github.com/recipehub/recipekit/pkg/dsl"
)

// RankParams 是搜索结果的过滤排序参数。
type RankParams struct {
	// Categories 分类白名单（大小写不敏感，任一命中即保留）；空表示不过滤
	Categories []string

	// Labels 标签子集约束：每个标签都必须出现在菜谱标签中；空表示不过滤
	Labels []string

	// Expr 可选的表达式过滤（CEL），变量名 recipe；
	// 编译失败时跳过该过滤并告警，不让整次搜索失败
	Expr string

	// SortBy 排序字段（id/name/category）；未知字段退化为不排序
	SortBy string

	// Direction 排序方向，"descending" 为降序，其余按升序
	Direction string
}

// 排序键的三个层级：数值 < 字符串 < 不可排序/缺失。
// 同层内数值按大小、字符串按小写字典序，缺失层视为彼此相等（稳定排序保持原序）。
const (
	tierNumber = iota
	tierString
	tierMissing
)

type sortKey struct {
	tier int
	num  float64
	str  string
}

// FilterSort 对关键词搜索结果做结构化过滤与排序，返回新切片。
// 过滤先于排序；任何一步失败都向"少过滤/不排序"的方向降级，绝不丢整个结果集。
func FilterSort(items []*core.RecipeSummary, p *RankParams) []*core.RecipeSummary {
	if p == nil {
		p = &RankParams{}
	}

	out := filterItems(items, p)

	if p.SortBy != "" {
		sortItems(out, p.SortBy, strings.EqualFold(p.Direction, "descending"))
	}
	return out
}

func filterItems(items []*core.RecipeSummary, p *RankParams) []*core.RecipeSummary {
	categories := lowerSet(p.Categories)

	var eval *dsl.Eval
	if p.Expr != "" {
		var err error
		eval, err = dsl.NewEval(p.Expr)
		if err != nil {
			slog.Warn("filter expression rejected, skipping", "expr", p.Expr, "error", err)
			eval = nil
		}
	}

	out := make([]*core.RecipeSummary, 0, len(items))
	for _, item := range items {
		if len(categories) > 0 {
			if _, ok := categories[strings.ToLower(item.Category)]; !ok {
				continue
			}
		}
		if !hasAllLabels(item.Labels, p.Labels) {
			continue
		}
		if eval != nil {
			matched, err := eval.Matches(item)
			if err != nil {
				// 单条求值失败按保留处理，宁可多给不可错杀
				slog.Warn("filter expression eval failed, keeping item",
					"recipe_id", item.ID, "error", err)
			} else if !matched {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// hasAllLabels 判断 want 是否为 have 的子集（大小写不敏感）。
func hasAllLabels(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := lowerSet(have)
	for _, label := range want {
		if _, ok := set[strings.ToLower(label)]; !ok {
			return false
		}
	}
	return true
}

func sortItems(items []*core.RecipeSummary, field string, descending bool) {
	keys := make(map[*core.RecipeSummary]sortKey, len(items))
	for _, item := range items {
		keys[item] = keyOf(item, field)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := keys[items[i]], keys[items[j]]
		if descending {
			a, b = b, a
		}
		return keyLess(a, b)
	})
}

// keyOf 计算三层排序键。未知字段全部落入缺失层，
// 稳定排序下整个结果保持过滤后的原序，等价于不排序。
func keyOf(item *core.RecipeSummary, field string) sortKey {
	var v any
	switch strings.ToLower(field) {
	case "id":
		v = item.ID
	case "name":
		v = item.Name
	case "category":
		v = item.Category
	default:
		return sortKey{tier: tierMissing}
	}

	if f, ok := conv.ToFloat64(v); ok {
		return sortKey{tier: tierNumber, num: f}
	}
	if s, ok := conv.ToString(v); ok {
		return sortKey{tier: tierString, str: strings.ToLower(s)}
	}
	return sortKey{tier: tierMissing}
}

func keyLess(a, b sortKey) bool {
	if a.tier != b.tier {
		return a.tier < b.tier
	}
	switch a.tier {
	case tierNumber:
		return a.num < b.num
	case tierString:
		return a.str < b.str
	default:
		return false
	}
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
