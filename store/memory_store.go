package store

import (
	"context"
	"sync"
	"time"

	"github.com/recipehub/recipekit/core"
)

// MemoryRecipeStore 是内存实现的 RecipeStore，用于测试/开发。
// 线程安全；交互写入通过 SetInteractions 一次性灌入。
type MemoryRecipeStore struct {
	mu       sync.RWMutex
	recipes  map[int64]*core.RecipeRecord
	liked    map[int64][]int64 // userID -> recipeIDs
	disliked map[int64][]int64
	changed  map[int64]time.Time // userID -> 最近交互变更时间
}

func NewMemoryRecipeStore() *MemoryRecipeStore {
	return &MemoryRecipeStore{
		recipes:  make(map[int64]*core.RecipeRecord),
		liked:    make(map[int64][]int64),
		disliked: make(map[int64][]int64),
		changed:  make(map[int64]time.Time),
	}
}

// AddRecipe 写入菜谱记录（测试用）。
func (s *MemoryRecipeStore) AddRecipe(r *core.RecipeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes[r.ID] = r
}

// SetInteractions 设置用户的交互集合并记录变更时间（测试用）。
func (s *MemoryRecipeStore) SetInteractions(userID int64, liked, disliked []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liked[userID] = append([]int64(nil), liked...)
	s.disliked[userID] = append([]int64(nil), disliked...)
	s.changed[userID] = time.Now()
}

// Touch 更新用户的交互变更时间（测试用）。
func (s *MemoryRecipeStore) Touch(userID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed[userID] = at
}

func (s *MemoryRecipeStore) FetchRecipesByIDs(_ context.Context, ids []int64) ([]*core.RecipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.RecipeRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryRecipeStore) LikedRecipeIDs(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.liked[userID]...), nil
}

func (s *MemoryRecipeStore) DislikedRecipeIDs(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.disliked[userID]...), nil
}

func (s *MemoryRecipeStore) RecentlyChangedUserIDs(_ context.Context, window time.Duration) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := time.Now().Add(-window)
	out := make([]int64, 0)
	for userID, at := range s.changed {
		if !at.Before(cutoff) {
			out = append(out, userID)
		}
	}
	return out, nil
}

func (s *MemoryRecipeStore) Close() error { return nil }

var _ core.RecipeStore = (*MemoryRecipeStore)(nil)
