package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/service"
)

// mockPopularCache is an in-memory service.PopularCache with generation
// keys. Setting getErr or setErr makes the corresponding call fail; beforeSet
// runs at the start of every Set.
type mockPopularCache struct {
	mu          sync.Mutex
	gen         int
	entries     map[string][]domain.PopularDestination
	invalidated int
	getErr      error
	setErr      error
	beforeSet   func()
}

func newMockPopularCache() *mockPopularCache {
	return &mockPopularCache{entries: map[string][]domain.PopularDestination{}}
}

func (c *mockPopularCache) Key(_ context.Context, limit int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d:%d", c.gen, limit), nil
}

func (c *mockPopularCache) Get(_ context.Context, key string) ([]domain.PopularDestination, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	list, ok := c.entries[key]
	return list, ok, nil
}

func (c *mockPopularCache) Set(_ context.Context, key string, list []domain.PopularDestination) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = list
	return nil
}

func (c *mockPopularCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.gen++
	return nil
}

var _ service.PopularCache = (*mockPopularCache)(nil)

func TestFavoriteService_Add_DedupsCaseInsensitively(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	bob := seedUser(t, f, "bob")
	svc := service.NewFavoriteService(f, nil, discardLogger())
	ctx := context.Background()

	first, added, err := svc.Add(ctx, alice.ID, domain.NewFavorite{Name: "Paris", Country: "France"})
	require.NoError(t, err)
	assert.True(t, added)

	second, added, err := svc.Add(ctx, bob.ID, domain.NewFavorite{Name: "  pARIS ", Country: "Texas"})
	require.NoError(t, err)
	assert.True(t, added)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Paris", second.Name, "first writer's casing wins")
	assert.Equal(t, "France", second.Country)
	assert.Len(t, f.st.favorites, 1)
}

func TestFavoriteService_Add_Twice(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	cache := newMockPopularCache()
	svc := service.NewFavoriteService(f, cache, discardLogger())

	_, _, err := svc.Add(context.Background(), alice.ID, domain.NewFavorite{Name: "Rome"})
	require.NoError(t, err)
	_, added, err := svc.Add(context.Background(), alice.ID, domain.NewFavorite{Name: "rome"})
	require.NoError(t, err)

	assert.False(t, added)
	assert.Equal(t, 1, cache.invalidated, "no-op add leaves the cache alone")
}

func TestFavoriteService_Add_BlankName(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	svc := service.NewFavoriteService(f, nil, discardLogger())

	_, _, err := svc.Add(context.Background(), alice.ID, domain.NewFavorite{Name: " "})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFavoriteService_RemoveAndIsFavorited(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	svc := service.NewFavoriteService(f, nil, discardLogger())
	ctx := context.Background()
	d, _, err := svc.Add(ctx, alice.ID, domain.NewFavorite{Name: "Oslo"})
	require.NoError(t, err)

	ok, err := svc.IsFavorited(ctx, alice.ID, "OSLO")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Remove(ctx, alice.ID, d.ID))

	ok, err = svc.IsFavorited(ctx, alice.ID, "Oslo")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, f.st.favorites, 1, "catalog entry outlives its last favorite")

	assert.ErrorIs(t, svc.Remove(ctx, alice.ID, d.ID), domain.ErrNotFound)
}

func TestFavoriteService_List_NewestFirst(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	svc := service.NewFavoriteService(f, nil, discardLogger())
	ctx := context.Background()
	for _, name := range []string{"Lima", "Cusco", "Quito"} {
		_, _, err := svc.Add(ctx, alice.ID, domain.NewFavorite{Name: name})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, alice.ID)

	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Quito", list[0].Name)
	assert.Equal(t, "Lima", list[2].Name)
}

func TestFavoriteService_Popular_UsesCache(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	bob := seedUser(t, f, "bob")
	cache := newMockPopularCache()
	svc := service.NewFavoriteService(f, cache, discardLogger())
	ctx := context.Background()
	_, _, err := svc.Add(ctx, alice.ID, domain.NewFavorite{Name: "Lima"})
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, alice.ID, domain.NewFavorite{Name: "Cusco"})
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, bob.ID, domain.NewFavorite{Name: "Cusco"})
	require.NoError(t, err)

	first, err := svc.Popular(ctx, 0)
	require.NoError(t, err)
	second, err := svc.Popular(ctx, 0)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, "Cusco", first[0].Name)
	assert.Equal(t, int64(2), first[0].Favorites)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.st.calls["Favorites.Popular"], "second call is served from the cache")
	assert.Contains(t, cache.entries, "0:10", "non-positive limit means the default")
}

func TestFavoriteService_Popular_InvalidatedByChanges(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	cache := newMockPopularCache()
	svc := service.NewFavoriteService(f, cache, discardLogger())
	ctx := context.Background()

	_, err := svc.Popular(ctx, 5)
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, alice.ID, domain.NewFavorite{Name: "Lima"})
	require.NoError(t, err)

	got, err := svc.Popular(ctx, 5)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, f.st.calls["Favorites.Popular"])
}

func TestFavoriteService_Popular_InvalidationDuringReadIsNotMasked(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	cache := newMockPopularCache()
	svc := service.NewFavoriteService(f, cache, discardLogger())
	ctx := context.Background()
	cache.beforeSet = func() {
		cache.beforeSet = nil
		_, _, err := svc.Add(ctx, alice.ID, domain.NewFavorite{Name: "Lima"})
		require.NoError(t, err)
	}

	stale, err := svc.Popular(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, stale)

	got, err := svc.Popular(ctx, 5)

	require.NoError(t, err)
	require.Len(t, got, 1, "the ranking read before the change is not served afterwards")
	assert.Equal(t, 2, f.st.calls["Favorites.Popular"])
}

func TestFavoriteService_Popular_CacheFailureFallsThrough(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	cache := newMockPopularCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	svc := service.NewFavoriteService(f, cache, discardLogger())
	_, _, err := svc.Add(context.Background(), alice.ID, domain.NewFavorite{Name: "Lima"})
	require.NoError(t, err)

	got, err := svc.Popular(context.Background(), 500)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFavoriteService_Search(t *testing.T) {
	f := newFakeStore()
	alice := seedUser(t, f, "alice")
	svc := service.NewFavoriteService(f, nil, discardLogger())
	ctx := context.Background()
	_, _, err := svc.Add(ctx, alice.ID, domain.NewFavorite{Name: "Porto", Country: "Portugal"})
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, alice.ID, domain.NewFavorite{Name: "Madrid", Country: "Spain"})
	require.NoError(t, err)

	got, err := svc.Search(ctx, "port")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Porto", got[0].Name)

	got, err = svc.Search(ctx, "SPAIN")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
