package search

import (
	"context"
	"testing"

	"github.com/recipehub/recipekit/core"
	"github.com/recipehub/recipekit/store"
)

func newSearchIndex(t *testing.T, points []core.Point) *store.MemoryIndex {
	t.Helper()
	ctx := context.Background()
	idx := store.NewMemoryIndex()
	if err := idx.CreateCollection(ctx, "text_embeddings", 1, core.MetricCosine); err != nil {
		t.Fatalf("CreateCollection() error: %v", err)
	}
	if err := idx.Upsert(ctx, "text_embeddings", points); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	return idx
}

func recipePoint(id int64, name, category string, ingredients ...string) core.Point {
	return core.Point{
		ID:     id,
		Vector: []float32{1},
		Payload: map[string]any{
			core.PayloadName:        name,
			core.PayloadCategory:    category,
			core.PayloadLabel:       []string{},
			core.PayloadIngredients: ingredients,
		},
	}
}

func TestKeywordSearch(t *testing.T) {
	points := []core.Point{
		recipePoint(1, "tomato soup", "soup", "tomato", "onion"),
		recipePoint(2, "pasta", "main", "pasta", "tomato"),
		recipePoint(3, "beef stew", "main", "beef"),
		recipePoint(4, "tomato", "side", "tomato"),
		recipePoint(5, "tomato soup", "dinner", "tomato", "basil"),
	}

	tests := []struct {
		name    string
		input   string
		limit   int
		wantIDs []int64
	}{
		{
			name:  "empty input returns empty without scanning",
			input: "   ",
		},
		{
			// 整串命中 1、5 在分词命中 2、4 之前，即使 ID 更大
			name:    "phrase hits come before word hits",
			input:   "tomato soup",
			limit:   10,
			wantIDs: []int64{1, 5, 2, 4},
		},
		{
			name:    "single word matches ingredient lists",
			input:   "tomato",
			limit:   10,
			wantIDs: []int64{1, 2, 4, 5},
		},
		{
			name:    "input is case insensitive",
			input:   "ToMaTo",
			limit:   10,
			wantIDs: []int64{1, 2, 4, 5},
		},
		{
			name:    "limit truncates merged results",
			input:   "tomato",
			limit:   2,
			wantIDs: []int64{1, 2},
		},
		{
			name:  "no match yields empty",
			input: "sushi",
			limit: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &KeywordSearcher{Index: newSearchIndex(t, points), Collection: "text_embeddings"}
			got, err := s.Search(context.Background(), tt.input, tt.limit)
			if err != nil {
				t.Fatalf("Search() error: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Search() len = %d, want %d (%+v)", len(got), len(tt.wantIDs), got)
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("Search()[%d].ID = %d, want %d", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestKeywordSearchDecodesPayload(t *testing.T) {
	s := &KeywordSearcher{
		Index:      newSearchIndex(t, []core.Point{recipePoint(1, "tomato soup", "soup", "tomato", "onion")}),
		Collection: "text_embeddings",
	}
	got, err := s.Search(context.Background(), "tomato soup", 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Search() len = %d, want 1", len(got))
	}
	hit := got[0]
	if hit.Name != "tomato soup" || hit.Category != "soup" {
		t.Errorf("summary = %+v, want decoded name and category", hit)
	}
	if len(hit.Ingredients) != 2 {
		t.Errorf("ingredients = %v, want 2 items", hit.Ingredients)
	}
}

// failingScrollIndex 模拟索引不可用。
type failingScrollIndex struct {
	*store.MemoryIndex
}

func (f *failingScrollIndex) Scroll(context.Context, string, *core.IndexFilter, int) ([]core.Point, error) {
	return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeUnavailable, "index: connection refused")
}

func TestKeywordSearchDegradesWhenIndexUnavailable(t *testing.T) {
	s := &KeywordSearcher{
		Index:      &failingScrollIndex{MemoryIndex: store.NewMemoryIndex()},
		Collection: "text_embeddings",
	}
	got, err := s.Search(context.Background(), "tomato", 10)
	if err != nil {
		t.Fatalf("Search() error = %v, want degraded empty result", err)
	}
	if len(got) != 0 {
		t.Fatalf("Search() = %+v, want empty on index failure", got)
	}
}
