package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/recipehub/recipekit/core"
	"github.com/recipehub/recipekit/pkg/conv"
	"github.com/recipehub/recipekit/store"
)

type refresherFixture struct {
	store *store.MemoryRecipeStore
	dirty *store.MemoryDirtySet
	index *store.MemoryIndex
	ref   *Refresher
}

func newRefresherFixture(t *testing.T) *refresherFixture {
	t.Helper()
	ctx := context.Background()

	idx := store.NewMemoryIndex()
	if err := idx.CreateCollection(ctx, "text_embeddings", testDim, core.MetricCosine); err != nil {
		t.Fatalf("CreateCollection() error: %v", err)
	}
	if err := idx.Upsert(ctx, "text_embeddings", []core.Point{
		{ID: 1, Vector: []float32{1, 0}},
		{ID: 2, Vector: []float32{0, 1}},
	}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	recipeStore := store.NewMemoryRecipeStore()
	dirty := store.NewMemoryDirtySet()
	calc := &Calculator{Index: idx, RecipeCollection: "text_embeddings", Dimension: testDim}

	return &refresherFixture{
		store: recipeStore,
		dirty: dirty,
		index: idx,
		ref: &Refresher{
			Store:          recipeStore,
			Dirty:          dirty,
			Index:          idx,
			Calc:           calc,
			UserCollection: "user_embeddings",
			Dimension:      testDim,
			Metric:         core.MetricCosine,
			Window:         time.Minute,
			MaxConcurrent:  2,
		},
	}
}

func (f *refresherFixture) userPoint(t *testing.T, userID int64) core.Point {
	t.Helper()
	points, err := f.index.Retrieve(context.Background(), "user_embeddings", []int64{userID}, true)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("user %d point count = %d, want 1", userID, len(points))
	}
	return points[0]
}

func TestRunOnceRefreshesDirtyUser(t *testing.T) {
	f := newRefresherFixture(t)
	ctx := context.Background()

	f.store.SetInteractions(7, []int64{1, 2}, nil)
	f.store.Touch(7, time.Now().Add(-time.Hour)) // 变更在窗口外，只能靠脏标记触发
	if err := f.dirty.Mark(ctx, 7); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}

	if err := f.ref.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	p := f.userPoint(t, 7)
	want := []float64{0.5, 0.5}
	if !vecEqual(p.Vector, want) {
		t.Errorf("user vector = %v, want %v", p.Vector, want)
	}
	if got := conv.SliceAnyToInt64(p.Payload[core.PayloadLiked]); len(got) != 2 {
		t.Errorf("liked payload = %v, want 2 ids", got)
	}

	members, err := f.dirty.Members(ctx)
	if err != nil {
		t.Fatalf("Members() error: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("dirty set = %v, want cleared", members)
	}
}

func TestRunOncePicksUpRecentlyChangedUsers(t *testing.T) {
	f := newRefresherFixture(t)
	ctx := context.Background()

	// SetInteractions 记录当前时间，处于窗口内，无需脏标记
	f.store.SetInteractions(8, []int64{1}, []int64{2})

	if err := f.ref.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	p := f.userPoint(t, 8)
	want := []float64{1, -1}
	if !vecEqual(p.Vector, want) {
		t.Errorf("user vector = %v, want %v", p.Vector, want)
	}
}

func TestRunOnceWritesZeroVectorForNoSignalUser(t *testing.T) {
	f := newRefresherFixture(t)
	ctx := context.Background()

	f.store.SetInteractions(9, nil, nil)
	if err := f.dirty.Mark(ctx, 9); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}

	if err := f.ref.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	p := f.userPoint(t, 9)
	if !vecEqual(p.Vector, []float64{0, 0}) {
		t.Errorf("user vector = %v, want zero vector", p.Vector)
	}
}

func TestRunOnceIsIdempotent(t *testing.T) {
	f := newRefresherFixture(t)
	ctx := context.Background()

	f.store.SetInteractions(7, []int64{1}, nil)
	if err := f.dirty.Mark(ctx, 7); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.ref.RunOnce(ctx); err != nil {
			t.Fatalf("RunOnce() round %d error: %v", i, err)
		}
	}

	p := f.userPoint(t, 7)
	if !vecEqual(p.Vector, []float64{1, 0}) {
		t.Errorf("user vector after repeated refresh = %v, want [1 0]", p.Vector)
	}
}

func TestRunOnceNoUsersIsNoop(t *testing.T) {
	f := newRefresherFixture(t)
	if err := f.ref.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}
	exists, err := f.index.HasCollection(context.Background(), "user_embeddings")
	if err != nil {
		t.Fatalf("HasCollection() error: %v", err)
	}
	if exists {
		t.Error("user collection should not be created when there is nothing to refresh")
	}
}

// flakyInteractionStore 让单个用户的交互读取失败。
type flakyInteractionStore struct {
	*store.MemoryRecipeStore
	failUser int64
}

func (s *flakyInteractionStore) LikedRecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if userID == s.failUser {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: connection reset")
	}
	return s.MemoryRecipeStore.LikedRecipeIDs(ctx, userID)
}

func TestRunOnceIsolatesPerUserFailures(t *testing.T) {
	f := newRefresherFixture(t)
	ctx := context.Background()

	f.store.SetInteractions(1, []int64{1}, nil)
	f.store.SetInteractions(2, []int64{2}, nil)
	for _, id := range []int64{1, 2} {
		if err := f.dirty.Mark(ctx, id); err != nil {
			t.Fatalf("Mark(%d) error: %v", id, err)
		}
	}
	f.ref.Store = &flakyInteractionStore{MemoryRecipeStore: f.store, failUser: 1}

	// 单用户失败只记录日志，不中断整批也不上抛
	if err := f.ref.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce() error = %v, want nil despite one failing user", err)
	}

	// 其余用户照常刷新，脏标记被清除
	p := f.userPoint(t, 2)
	if !vecEqual(p.Vector, []float64{0, 1}) {
		t.Errorf("user 2 vector = %v, want [0 1]", p.Vector)
	}

	// 失败用户未写入向量，脏标记保留到下一轮重试
	points, err := f.index.Retrieve(ctx, "user_embeddings", []int64{1}, false)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("failing user got a point written: %+v", points)
	}
	members, err := f.dirty.Members(ctx)
	if err != nil {
		t.Fatalf("Members() error: %v", err)
	}
	if len(members) != 1 || members[0] != 1 {
		t.Errorf("dirty set = %v, want only failing user 1 retained", members)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newRefresherFixture(t)
	f.ref.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.ref.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after context cancel")
	}
}
