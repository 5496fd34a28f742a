package hashid

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int64
	Name string
}

func (w widget) PrimaryKey() int64 { return w.ID }

type fakeStore struct {
	rows      map[int64]widget
	err       error
	byID      []int64
	byIDsCall [][]int64
}

func (s *fakeStore) FindByID(_ context.Context, id int64) (widget, error) {
	s.byID = append(s.byID, id)
	if s.err != nil {
		return widget{}, s.err
	}
	w, ok := s.rows[id]
	if !ok {
		return widget{}, fmt.Errorf("widget %d: %w", id, ErrNotFound)
	}
	return w, nil
}

func (s *fakeStore) FindByIDs(_ context.Context, ids []int64) ([]widget, error) {
	s.byIDsCall = append(s.byIDsCall, ids)
	if s.err != nil {
		return nil, s.err
	}
	var out []widget
	for _, id := range ids {
		if w, ok := s.rows[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

// 实体类型沿用 "shortlink"，复用 hasher_test 里的向量：1->Zo 2->QX 3->Nm
func newTestFinder(t *testing.T) (*Finder[widget], *fakeStore) {
	t.Helper()
	store := &fakeStore{rows: map[int64]widget{
		1: {ID: 1, Name: "one"},
		3: {ID: 3, Name: "three"},
	}}
	p := newTestProvider(t, testSettings("test-salt", 2))
	return NewFinder[widget](p.For("shortlink"), store), store
}

func TestFinder_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f, store := newTestFinder(t)
		w, ok, err := f.Find(ctx, "Zo")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "one", w.Name)
		assert.Equal(t, []int64{1}, store.byID)
	})

	t.Run("absent input skips store", func(t *testing.T) {
		f, store := newTestFinder(t)
		for _, in := range []string{"", "invalid"} {
			_, ok, err := f.Find(ctx, in)
			require.NoError(t, err)
			assert.False(t, ok)
		}
		assert.Empty(t, store.byID)
	})

	t.Run("missing row", func(t *testing.T) {
		f, store := newTestFinder(t)
		_, ok, err := f.Find(ctx, "QX")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []int64{2}, store.byID)
	})

	t.Run("store error propagates", func(t *testing.T) {
		f, store := newTestFinder(t)
		store.err = errors.New("connection reset")
		_, ok, err := f.Find(ctx, "Zo")
		require.EqualError(t, err, "connection reset")
		assert.False(t, ok)
	})
}

func TestFinder_FindOrFail(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f, _ := newTestFinder(t)
		w, err := f.FindOrFail(ctx, "Nm")
		require.NoError(t, err)
		assert.Equal(t, int64(3), w.ID)
	})

	t.Run("undecodable input short-circuits", func(t *testing.T) {
		f, store := newTestFinder(t)
		for _, in := range []string{"", "also-invalid"} {
			_, err := f.FindOrFail(ctx, in)
			require.ErrorIs(t, err, ErrNotFound)
		}
		assert.Empty(t, store.byID)
	})

	t.Run("missing row", func(t *testing.T) {
		f, store := newTestFinder(t)
		_, err := f.FindOrFail(ctx, "QX")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, []int64{2}, store.byID)
	})

	t.Run("route binding is FindOrFail", func(t *testing.T) {
		f, _ := newTestFinder(t)
		w, err := f.ResolveRouteBinding(ctx, "Zo")
		require.NoError(t, err)
		assert.Equal(t, int64(1), w.ID)

		v, err := f.Bind(ctx, "Zo")
		require.NoError(t, err)
		assert.Equal(t, w, v)

		_, err = f.Bind(ctx, "nope-nope")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFinder_FindMany(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input skips store", func(t *testing.T) {
		f, store := newTestFinder(t)
		got, err := f.FindMany(ctx, nil)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
		assert.Empty(t, store.byIDsCall)
	})

	t.Run("nothing decodable skips store", func(t *testing.T) {
		f, store := newTestFinder(t)
		got, err := f.FindMany(ctx, []string{"invalid", "also-invalid"})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Empty(t, store.byIDsCall)
	})

	t.Run("single query with decoded set", func(t *testing.T) {
		f, store := newTestFinder(t)
		got, err := f.FindMany(ctx, []string{"Zo", "junk-value", "Nm", "QX"})
		require.NoError(t, err)
		assert.Equal(t, [][]int64{{1, 3, 2}}, store.byIDsCall)
		assert.Equal(t, []widget{{ID: 1, Name: "one"}, {ID: 3, Name: "three"}}, got)
	})

	t.Run("store returning nil yields empty slice", func(t *testing.T) {
		f, _ := newTestFinder(t)
		got, err := f.FindMany(ctx, []string{"QX"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestFinder_RouteKey(t *testing.T) {
	f, _ := newTestFinder(t)

	key, err := f.RouteKey(widget{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Zo", key)

	_, err = f.RouteKey(widget{ID: -1})
	require.ErrorIs(t, err, ErrNegativeID)
}
