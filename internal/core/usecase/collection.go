package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

// CollectionUseCase keeps vector, stored and lexical state of a collection in step.
type CollectionUseCase struct {
	vectorDB ports.VectorStore
	chunks   ports.ChunkRepository
	lexical  ports.LexicalIndex
	events   ports.IndexEventPublisher
}

func NewCollectionUseCase(
	vectorDB ports.VectorStore,
	chunks ports.ChunkRepository,
	lexical ports.LexicalIndex,
	events ports.IndexEventPublisher,
) *CollectionUseCase {
	return &CollectionUseCase{
		vectorDB: vectorDB,
		chunks:   chunks,
		lexical:  lexical,
		events:   events,
	}
}

func (uc *CollectionUseCase) Reset(ctx context.Context, collection string) error {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return domain.WrapError(domain.ErrInvalidInput, "reset collection", errors.New("collection is required"))
	}

	if err := uc.vectorDB.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("delete vector collection: %w", err)
	}
	if uc.chunks != nil {
		if err := uc.chunks.DeleteCollection(ctx, collection); err != nil {
			return fmt.Errorf("delete stored chunks: %w", err)
		}
	}
	if uc.lexical != nil {
		uc.lexical.Reset(collection)
	}

	if uc.events != nil {
		if err := uc.events.PublishCollectionChanged(ctx, collection); err != nil {
			slog.Warn("index_event_publish_failed", "collection", collection, "error", err.Error())
		}
	}
	return nil
}

// Reload rebuilds the lexical entry from the chunk repository and returns
// the number of documents indexed.
func (uc *CollectionUseCase) Reload(ctx context.Context, collection string) (int, error) {
	if uc.chunks == nil || uc.lexical == nil {
		return 0, nil
	}
	docs, err := uc.chunks.ListChunks(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("list stored chunks: %w", err)
	}
	uc.lexical.Replace(collection, docs)
	return len(docs), nil
}

func (uc *CollectionUseCase) ReloadAll(ctx context.Context) error {
	if uc.chunks == nil || uc.lexical == nil {
		return nil
	}
	collections, err := uc.chunks.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, collection := range collections {
		n, err := uc.Reload(ctx, collection)
		if err != nil {
			return fmt.Errorf("reload %s: %w", collection, err)
		}
		slog.Info("lexical_collection_loaded", "collection", collection, "docs", n)
	}
	return nil
}
