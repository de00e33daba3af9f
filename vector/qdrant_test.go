package vector

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"github.com/recipehub/recipekit/core"
	"github.com/recipehub/recipekit/pkg/conv"
)

func TestEncodePayloadUserPointShape(t *testing.T) {
	// 保鲜调度器写入用户点时的 payload 形态：类型化的 []int64 交互列表。
	// NewValueMap 对类型化切片会 panic，编码层必须先归一化。
	payload := map[string]any{
		core.PayloadUserID:   int64(7),
		core.PayloadLiked:    []int64{1, 2},
		core.PayloadDisliked: []int64{},
	}

	values := qdrant.NewValueMap(encodePayload(payload))
	decoded := decodePayload(values)

	if id, ok := conv.ToInt64(decoded[core.PayloadUserID]); !ok || id != 7 {
		t.Errorf("user_id round trip = %v, want 7", decoded[core.PayloadUserID])
	}
	liked := conv.SliceAnyToInt64(decoded[core.PayloadLiked])
	if len(liked) != 2 || liked[0] != 1 || liked[1] != 2 {
		t.Errorf("liked round trip = %v, want [1 2]", liked)
	}
	if disliked := conv.SliceAnyToInt64(decoded[core.PayloadDisliked]); len(disliked) != 0 {
		t.Errorf("disliked round trip = %v, want empty", disliked)
	}
}

func TestEncodePayloadRecipePointShape(t *testing.T) {
	// 菜谱点维护写入的 payload 形态：[]string 标签/食材 + 整数计数。
	payload := map[string]any{
		core.PayloadName:            "tomato soup",
		core.PayloadCategory:        "soup",
		core.PayloadLabel:           []string{"vegetarian"},
		core.PayloadIngredients:     []string{"tomato", "onion"},
		core.PayloadIngredientCount: int64(2),
	}

	values := qdrant.NewValueMap(encodePayload(payload))
	decoded := decodePayload(values)

	if name, _ := conv.ToString(decoded[core.PayloadName]); name != "tomato soup" {
		t.Errorf("name round trip = %v, want tomato soup", decoded[core.PayloadName])
	}
	ingredients := conv.SliceAnyToString(decoded[core.PayloadIngredients])
	if len(ingredients) != 2 || ingredients[0] != "tomato" {
		t.Errorf("ingredients round trip = %v, want [tomato onion]", ingredients)
	}
	if count, ok := conv.ToInt64(decoded[core.PayloadIngredientCount]); !ok || count != 2 {
		t.Errorf("ingredient count round trip = %v, want 2", decoded[core.PayloadIngredientCount])
	}
}

func TestEncodeValuePassthroughAndNesting(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{name: "scalar string", in: "a"},
		{name: "scalar int64", in: int64(1)},
		{name: "nested any list", in: []any{"a", []string{"b"}}},
		{name: "nested map", in: map[string]any{"ids": []int64{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 编码结果必须能被 NewValueMap 接受（不 panic）
			qdrant.NewValueMap(map[string]any{"v": encodeValue(tt.in)})
		})
	}
}
