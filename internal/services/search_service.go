// Package services – SearchService
//
// This file implements SearchService, which answers search requests from the
// in-memory registry maintained by the task executor. The registry holds token
// sets only; matching documents are hydrated from the repository so responses
// return the stored JSON verbatim.

package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SearchHit is one matching document with its similarity score.
type SearchHit struct {
	Document map[string]any `json:"document"`
	Score    float64        `json:"score"`
}

// SearchResult is the response body of the search endpoint.
type SearchResult struct {
	Hits             []SearchHit `json:"hits"`
	Query            string      `json:"query"`
	Limit            int         `json:"limit"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
}

// SearchService runs queries against the live search registry.
type SearchService struct {
	DB       *gorm.DB
	Registry *search.Registry

	// DefaultLimit applies when the request omits limit; MaxLimit caps it.
	// Zero values fall back to 20 and 100.
	DefaultLimit int
	MaxLimit     int
}

// Search ranks an index's documents against query and hydrates the winners.
// A valid index with no searchable documents yields an empty hit list, not an
// error.
func (s *SearchService) Search(ctx context.Context, indexUID, query string, limit int) (*SearchResult, error) {
	tr := otel.Tracer("services/SearchService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("index.uid", indexUID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	started := time.Now()

	if err := scheduler.ValidateIndexUID(indexUID); err != nil {
		return nil, err
	}
	exists, err := repo.IndexExists(ctx, s.DB, indexUID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, scheduler.NewIndexNotFound(indexUID)
	}

	limit = s.clampLimit(limit)
	result := &SearchResult{
		Hits:  []SearchHit{},
		Query: query,
		Limit: limit,
	}

	idx, ok := s.Registry.Get(indexUID)
	if !ok {
		result.ProcessingTimeMs = time.Since(started).Milliseconds()
		return result, nil
	}

	for _, hit := range idx.TopK(query, limit) {
		doc, err := repo.GetDocument(ctx, s.DB, indexUID, hit.DocID)
		if err != nil {
			// The row may have been deleted between ranking and hydration.
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(doc.Fields), &fields); err != nil {
			continue
		}
		result.Hits = append(result.Hits, SearchHit{Document: fields, Score: hit.Score})
	}

	result.ProcessingTimeMs = time.Since(started).Milliseconds()
	return result, nil
}

func (s *SearchService) clampLimit(limit int) int {
	def, max := s.DefaultLimit, s.MaxLimit
	if def <= 0 {
		def = 20
	}
	if max <= 0 {
		max = 100
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// LoadSearchRegistry rebuilds the in-memory registry from the documents table,
// batch by batch. Called once at startup, before the scheduler starts, so the
// registry reflects every document the last run persisted.
func LoadSearchRegistry(ctx context.Context, db *gorm.DB, reg *search.Registry) (int64, error) {
	var loaded int64
	err := repo.ForEachDocumentBatch(ctx, db, 500, func(docs []domain.Document) error {
		for _, d := range docs {
			var fields map[string]any
			if err := json.Unmarshal([]byte(d.Fields), &fields); err != nil {
				// Skip rows whose JSON no longer parses instead of refusing
				// to boot; the document stays retrievable by id.
				continue
			}
			reg.GetOrCreate(d.IndexUID).Add(d.DocID, search.DocumentText(fields))
			loaded++
		}
		return nil
	})
	return loaded, err
}
