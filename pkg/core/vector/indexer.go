package vector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"investor_intel/pkg/core/chunking"
	"investor_intel/pkg/core/embedding"
	"investor_intel/pkg/core/logging"
)

// DefaultBatchSize is the number of records sent per upsert.
const DefaultBatchSize = 100

// Indexer chunks documents, embeds the chunks and writes them to a Store.
type Indexer struct {
	store     Store
	embedder  embedding.Embedder
	batchSize int
	logger    *zap.Logger
}

// NewIndexer wires an indexer. batchSize <= 0 uses DefaultBatchSize.
func NewIndexer(store Store, embedder embedding.Embedder, batchSize int, logger *zap.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{store: store, embedder: embedder, batchSize: batchSize, logger: logging.OrNop(logger)}
}

// IndexDocument splits markdown on headings and stores one record per chunk.
// Every record carries metadata plus document_id. It returns the number of
// chunks written.
func (ix *Indexer) IndexDocument(ctx context.Context, documentID, markdown string, metadata map[string]string) (int, error) {
	pieces := chunking.Document(documentID, markdown)
	if len(pieces) == 0 {
		ix.logger.Warn("document produced no chunks", zap.String("document_id", documentID))
		return 0, nil
	}

	for start := 0; start < len(pieces); start += ix.batchSize {
		end := min(start+ix.batchSize, len(pieces))
		batch := pieces[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Content
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return start, fmt.Errorf("embed chunks %d-%d of %s: %w", start, end-1, documentID, err)
		}

		records := make([]Record, len(batch))
		for i, p := range batch {
			records[i] = Record{
				ID:         p.ID,
				DocumentID: documentID,
				Ordinal:    p.Ordinal,
				Content:    p.Content,
				Metadata:   withDocumentID(metadata, documentID),
				Values:     vectors[i],
			}
		}
		if err := ix.store.Upsert(ctx, records); err != nil {
			return start, fmt.Errorf("upsert chunks %d-%d of %s: %w", start, end-1, documentID, err)
		}
	}

	ix.logger.Info("indexed document",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(pieces)),
		zap.String("embedder", ix.embedder.Name()))
	return len(pieces), nil
}

// RemoveDocument deletes every chunk stored for documentID.
func (ix *Indexer) RemoveDocument(ctx context.Context, documentID string) error {
	return ix.store.DeleteDocument(ctx, documentID)
}

func withDocumentID(metadata map[string]string, documentID string) map[string]string {
	out := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["document_id"] = documentID
	return out
}

// Searcher embeds a query and returns matches above a score threshold.
type Searcher struct {
	store    Store
	embedder embedding.Embedder
	minScore float64
}

// NewSearcher returns a Searcher dropping matches scored below minScore.
func NewSearcher(store Store, embedder embedding.Embedder, minScore float64) *Searcher {
	return &Searcher{store: store, embedder: embedder, minScore: minScore}
}

// Search runs a similarity query.
func (s *Searcher) Search(ctx context.Context, query string, topK int, filter Filter) ([]Match, error) {
	values, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.store.Query(ctx, values, topK, filter)
	if err != nil {
		return nil, err
	}

	kept := matches[:0]
	for _, m := range matches {
		if m.Score >= s.minScore {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// Exists proxies Store.Exists.
func (s *Searcher) Exists(ctx context.Context, filter Filter) (bool, error) {
	return s.store.Exists(ctx, filter)
}
