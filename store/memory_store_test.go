package store

import (
	"context"
	"testing"
	"time"

	"github.com/recipehub/recipekit/core"
)

func TestMemoryRecipeStoreFetchRecipesByIDs(t *testing.T) {
	s := NewMemoryRecipeStore()
	s.AddRecipe(&core.RecipeRecord{ID: 1, Name: "a"})
	s.AddRecipe(&core.RecipeRecord{ID: 2, Name: "b"})

	got, err := s.FetchRecipesByIDs(context.Background(), []int64{2, 99, 1})
	if err != nil {
		t.Fatalf("FetchRecipesByIDs() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FetchRecipesByIDs() len = %d, want 2 (missing ids skipped)", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 1 {
		t.Errorf("FetchRecipesByIDs() order = %d,%d, want requested order 2,1", got[0].ID, got[1].ID)
	}
}

func TestMemoryRecipeStoreInteractions(t *testing.T) {
	s := NewMemoryRecipeStore()
	s.SetInteractions(7, []int64{1, 2}, []int64{3})

	liked, err := s.LikedRecipeIDs(context.Background(), 7)
	if err != nil || len(liked) != 2 {
		t.Fatalf("LikedRecipeIDs() = (%v, %v), want 2 ids", liked, err)
	}
	disliked, err := s.DislikedRecipeIDs(context.Background(), 7)
	if err != nil || len(disliked) != 1 {
		t.Fatalf("DislikedRecipeIDs() = (%v, %v), want 1 id", disliked, err)
	}

	// 未知用户返回空集合而非错误
	none, err := s.LikedRecipeIDs(context.Background(), 999)
	if err != nil || len(none) != 0 {
		t.Fatalf("LikedRecipeIDs(unknown) = (%v, %v), want empty", none, err)
	}
}

func TestMemoryRecipeStoreRecentlyChangedUserIDs(t *testing.T) {
	s := NewMemoryRecipeStore()
	s.SetInteractions(1, []int64{10}, nil)
	s.SetInteractions(2, []int64{11}, nil)
	s.Touch(2, time.Now().Add(-time.Hour))

	got, err := s.RecentlyChangedUserIDs(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("RecentlyChangedUserIDs() error: %v", err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("RecentlyChangedUserIDs() = %v, want [1]", got)
	}
}

func TestMemoryDirtySet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDirtySet()

	for _, id := range []int64{1, 2, 2} {
		if err := s.Mark(ctx, id); err != nil {
			t.Fatalf("Mark(%d) error: %v", id, err)
		}
	}

	members, err := s.Members(ctx)
	if err != nil {
		t.Fatalf("Members() error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("Members() = %v, want 2 distinct ids", members)
	}

	if err := s.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	members, err = s.Members(ctx)
	if err != nil {
		t.Fatalf("Members() error: %v", err)
	}
	if len(members) != 1 || members[0] != 2 {
		t.Fatalf("Members() after clear = %v, want [2]", members)
	}

	// 清除不存在的成员幂等
	if err := s.Clear(ctx, 999); err != nil {
		t.Fatalf("Clear(unknown) error: %v", err)
	}
}
