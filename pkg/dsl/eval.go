package dsl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/recipehub/recipekit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("recipe", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Eval 是结果过滤 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// 表达式在构造时编译一次，之后可对任意多条菜谱重复求值。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：recipe.category == "dessert" / recipe.name != "pancake"
//   - 数值：recipe.id > 100
//   - 逻辑：recipe.category == "soup" && recipe.id < 50
//   - 包含："vegan" in recipe.labels / "egg" in recipe.ingredients
//
// 示例：
//   - `recipe.category == "dessert"` → 只保留甜点
//   - `"gluten-free" in recipe.labels && recipe.id != 7` → 无麸质且排除指定菜谱
type Eval struct {
	prg cel.Program
}

// NewEval 编译表达式并返回解释器。
// 表达式非法时返回错误，调用方应按 INVALID_INPUT 降级处理。
func NewEval(expr string) (*Eval, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput, "dsl: empty expression")
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dsl: compile error: %v", issues.Err()))
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dsl: program error: %v", err))
	}

	return &Eval{prg: prg}, nil
}

// Matches 对单条菜谱求值，返回表达式结果。
// 表达式结果不是布尔值、或求值出错（如访问不存在的字段）时返回错误。
func (e *Eval) Matches(recipe *core.RecipeSummary) (bool, error) {
	out, _, err := e.prg.Eval(map[string]any{
		"recipe": buildInput(recipe),
	})
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(r *core.RecipeSummary) map[string]any {
	labels := make([]any, 0, len(r.Labels))
	for _, l := range r.Labels {
		labels = append(labels, l)
	}
	ingredients := make([]any, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, ing)
	}
	return map[string]any{
		"id":          r.ID,
		"name":        r.Name,
		"category":    r.Category,
		"labels":      labels,
		"ingredients": ingredients,
	}
}
