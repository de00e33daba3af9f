package store

import (
	"context"
	"sync"

	"github.com/recipehub/recipekit/core"
)

// MemoryDirtySet 是内存实现的 DirtySet，用于测试/开发/原型。
// 线程安全；进程重启后数据丢失。
type MemoryDirtySet struct {
	mu      sync.Mutex
	members map[int64]struct{}
}

func NewMemoryDirtySet() *MemoryDirtySet {
	return &MemoryDirtySet{members: make(map[int64]struct{})}
}

func (s *MemoryDirtySet) Mark(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[userID] = struct{}{}
	return nil
}

func (s *MemoryDirtySet) Members(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryDirtySet) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, userID)
	return nil
}

func (s *MemoryDirtySet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = make(map[int64]struct{})
	return nil
}

var _ core.DirtySet = (*MemoryDirtySet)(nil)
