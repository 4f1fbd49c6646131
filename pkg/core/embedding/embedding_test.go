package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a, err := e.Embed(context.Background(), "Fintech startup raising a seed round")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "Fintech startup raising a seed round")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashEmbedder_UnitLength(t *testing.T) {
	e := NewHashEmbedder(128)
	v, err := e.Embed(context.Background(), "market size and growth forecast")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cosine(v, v), 1e-5)

	empty, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, math.Abs(cosine(empty, empty)))
}

func TestHashEmbedder_SimilarTextsCloser(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	vecs, err := e.EmbedBatch(ctx, []string{
		"healthcare AI diagnostics startup",
		"AI diagnostics for healthcare providers",
		"frozen food logistics in Canada",
	})
	require.NoError(t, err)

	assert.Greater(t, cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2]))
}

func TestGenAIEmbedder_MissingKey(t *testing.T) {
	e := NewGenAIEmbedder("", "", 0)
	_, err := e.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, 768, e.Dimensions())
	assert.Equal(t, "genai:gemini-embedding-001", e.Name())
}

func TestGenAIEmbedder_TaskTypes(t *testing.T) {
	var tasks []string
	e := NewGenAIEmbedder("key", "", 3)
	e.embedContent = func(_ context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
		assert.Equal(t, "gemini-embedding-001", model)
		require.NotNil(t, cfg.OutputDimensionality)
		assert.Equal(t, int32(3), *cfg.OutputDimensionality)
		tasks = append(tasks, cfg.TaskType)

		resp := &genai.EmbedContentResponse{}
		for range contents {
			resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: []float32{1, 0, 0}})
		}
		return resp, nil
	}

	q, err := e.Embed(context.Background(), "fintech startups in Boston")
	require.NoError(t, err)
	assert.Len(t, q, 3)

	docs, err := e.EmbedBatch(context.Background(), []string{"# A", "# B"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	assert.Equal(t, []string{TaskRetrievalQuery, TaskRetrievalDocument}, tasks)
}
