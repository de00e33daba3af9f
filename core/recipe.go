package core

// 索引 payload 的字段名（线上数据格式，勿随意更改）。
// 菜谱点使用大写开头的字段，用户点使用下划线风格，两者均沿用已有索引中的既成格式。
const (
	PayloadName            = "Name"
	PayloadCategory        = "Category"
	PayloadLabel           = "Label"
	PayloadIngredients     = "Ingredients"
	PayloadIngredientCount = "IngredientsCount"

	PayloadUserID   = "user_id"
	PayloadLiked    = "liked_recipes"
	PayloadDisliked = "disliked_recipes"
)

// KeywordFields 是关键词搜索时参与匹配的 payload 字段集合。
var KeywordFields = []string{PayloadName, PayloadCategory, PayloadLabel, PayloadIngredients}

// RecipeRecord 是关系存储中的完整菜谱记录。
type RecipeRecord struct {
	ID          int64
	Name        string
	Category    string
	Labels      []string
	Ingredients []string
	TotalTime   int
	Calories    float64
}

// RecipeSummary 是从索引 payload 还原出的菜谱摘要。
// 关键词搜索（scroll 操作）返回它，不带相似度分数。
type RecipeSummary struct {
	ID          int64
	Name        string
	Category    string
	Labels      []string
	Ingredients []string
}

// ScoredRecipe 是推荐结果：候选菜谱 + 原始相似度分数 + 协同调整后的最终分数。
// 无相似用户参与调整时，FinalScore == Score。
type ScoredRecipe struct {
	Recipe     *RecipeRecord
	Score      float64 // 向量查询返回的原始相似度
	FinalScore float64 // 协同调整后的排序依据
}

// Interaction 表示一次用户对菜谱的喜好记录。
type InteractionKind string

const (
	InteractionLiked    InteractionKind = "liked"
	InteractionDisliked InteractionKind = "disliked"
)
