package retriever

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"roomassist/internal/model"
)

// ChromemRetriever indexes room summaries in an embedded in-memory vector
// store. Cheap to rebuild, so a catalog change just constructs a new one.
type ChromemRetriever struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemRetriever builds a fresh index over the given rooms. The
// embedding function is called once per document at build time and once
// per query afterwards.
func NewChromemRetriever(ctx context.Context, collectionName string, rooms []model.Room, embed chromem.EmbeddingFunc) (*ChromemRetriever, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	if len(rooms) > 0 {
		docs := make([]chromem.Document, 0, len(rooms))
		for _, room := range rooms {
			docs = append(docs, chromem.Document{
				ID:      strconv.Itoa(room.ID),
				Content: room.SummaryLine(),
				Metadata: map[string]string{
					"name":  room.Name,
					"style": room.Style,
				},
			})
		}
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("failed to add documents: %w", err)
		}
	}

	return &ChromemRetriever{db: db, collection: collection}, nil
}

// TopK returns the k most similar summary lines to the query. k is clamped
// to the collection size; an empty collection yields no lines.
func (r *ChromemRetriever) TopK(ctx context.Context, query string, k int) ([]string, error) {
	count := r.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := r.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	lines := make([]string, 0, len(results))
	for _, res := range results {
		lines = append(lines, res.Content)
	}
	return lines, nil
}
