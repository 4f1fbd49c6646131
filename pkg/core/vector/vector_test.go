package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investor_intel/pkg/core/embedding"
)

func TestMemoryStore_QueryOrdersByScore(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Record{
		{ID: "a", Values: []float32{1, 0}},
		{ID: "b", Values: []float32{0.7, 0.7}},
		{ID: "c", Values: []float32{0, 1}},
	}))

	got, err := s.Query(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestMemoryStore_UpsertReplaces(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Record{{ID: "a", Content: "old", Values: []float32{1, 0}}}))
	require.NoError(t, s.Upsert(ctx, []Record{{ID: "a", Content: "new", Values: []float32{0, 1}}}))

	assert.Equal(t, 1, s.Len())
	got, err := s.Query(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", got[0].Content)
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	s := NewMemoryStore(3)
	err := s.Upsert(context.Background(), []Record{{ID: "a", Values: []float32{1}}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = s.Query(context.Background(), []float32{1, 2}, 1, nil)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestMemoryStore_UpsertAllOrNothing(t *testing.T) {
	s := NewMemoryStore(0)
	err := s.Upsert(context.Background(), []Record{
		{ID: "a", Values: []float32{1, 0}},
		{ID: "b", Values: []float32{0, 1}},
		{ID: "c", Values: []float32{1}},
	})
	require.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Zero(t, s.Len())

	// The rejected batch must not fix the dimension either.
	require.NoError(t, s.Upsert(context.Background(), []Record{{ID: "d", Values: []float32{1, 2, 3}}}))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_FilterAndExists(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Record{
		{ID: "a", Metadata: map[string]string{"industry": "Fintech"}, Values: []float32{1, 0}},
		{ID: "b", Metadata: map[string]string{"industry": "Health"}, Values: []float32{1, 0}},
	}))

	got, err := s.Query(ctx, []float32{1, 0}, 10, Filter{"industry": "fintech"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	ok, err := s.Exists(ctx, Filter{"industry": "HEALTH"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, Filter{"industry": "Retail"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 0}))
}

func TestFilterClause(t *testing.T) {
	where, args := filterClause(Filter{"year": "2024", "industry": "AI"}, 3)
	assert.Equal(t, "WHERE LOWER(metadata->>$3) = LOWER($4) AND LOWER(metadata->>$5) = LOWER($6)", where)
	assert.Equal(t, []any{"industry", "AI", "year", "2024"}, args)

	where, args = filterClause(nil, 1)
	assert.Empty(t, where)
	assert.Nil(t, args)
}

// recordingStore counts upsert calls.
type recordingStore struct {
	*MemoryStore
	upserts int
}

func (r *recordingStore) Upsert(ctx context.Context, records []Record) error {
	r.upserts++
	return r.MemoryStore.Upsert(ctx, records)
}

func TestIndexer_IndexDocument(t *testing.T) {
	store := &recordingStore{MemoryStore: NewMemoryStore(0)}
	ix := NewIndexer(store, embedding.NewHashEmbedder(64), 2, nil)

	doc := "# Intro\nalpha\n## Market\nbeta\n## Team\ngamma"
	n, err := ix.IndexDocument(context.Background(), "acme", doc, map[string]string{"industry": "AI", "source": SourceStartup})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 2, store.upserts)

	ok, err := store.Exists(context.Background(), Filter{"document_id": "acme", "source": SourceStartup})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIndexer_RemoveDocument(t *testing.T) {
	store := NewMemoryStore(0)
	ix := NewIndexer(store, embedding.NewHashEmbedder(32), 0, nil)
	ctx := context.Background()

	_, err := ix.IndexDocument(ctx, "keep", "# A\none", nil)
	require.NoError(t, err)
	_, err = ix.IndexDocument(ctx, "drop", "# B\ntwo\n# C\nthree", nil)
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())

	require.NoError(t, ix.RemoveDocument(ctx, "drop"))
	assert.Equal(t, 1, store.Len())
	ok, err := store.Exists(ctx, Filter{"document_id": "drop"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexer_EmptyDocument(t *testing.T) {
	store := NewMemoryStore(0)
	ix := NewIndexer(store, embedding.NewHashEmbedder(16), 0, nil)

	n, err := ix.IndexDocument(context.Background(), "empty", "   ", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, store.Len())
}

func TestSearcher_MinScore(t *testing.T) {
	store := NewMemoryStore(0)
	emb := embedding.NewHashEmbedder(128)
	ix := NewIndexer(store, emb, 0, nil)
	_, err := ix.IndexDocument(context.Background(), "r1",
		"# Revenue\nrevenue growth in fintech lending\n# Weather\nsunny skies and mild rain", nil)
	require.NoError(t, err)

	all, err := NewSearcher(store, emb, -1).Search(context.Background(), "fintech revenue growth", 5, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r1_chunk_0", all[0].ID)

	strict, err := NewSearcher(store, emb, 0.99).Search(context.Background(), "fintech revenue growth", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, strict)
}
