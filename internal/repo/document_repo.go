// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Document
// model.
//
// Documents are keyed by (index_uid, doc_id). Writes happen on the scheduler
// worker goroutines, reads on request goroutines; SQLite's WAL mode plus the
// busy timeout set in OpenSQLite make that safe.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-index-backend/internal/domain"
)

// UpsertDocuments inserts the given documents, replacing any existing rows
// with the same (index_uid, doc_id). Fields and UpdatedAt are overwritten on
// conflict; CreatedAt is preserved.
func UpsertDocuments(ctx context.Context, db *gorm.DB, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "index_uid"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
		}).
		Create(&docs).Error
}

// GetDocument fetches a single document by index UID and document id, or
// ErrNotFound if missing.
func GetDocument(ctx context.Context, db *gorm.DB, indexUID, docID string) (*domain.Document, error) {
	var d domain.Document
	err := db.WithContext(ctx).
		Where("index_uid = ? AND doc_id = ?", indexUID, docID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CountDocuments returns the total number of documents in an index.
func CountDocuments(ctx context.Context, db *gorm.DB, indexUID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("index_uid = ?", indexUID).
		Count(&total).Error
	return total, err
}

// ListDocumentsPage returns a paginated slice of an index's documents,
// ordered by doc_id ascending for stable pages.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListDocumentsPage(ctx context.Context, db *gorm.DB, indexUID string, offset, limit int) ([]domain.Document, error) {
	var out []domain.Document
	err := db.WithContext(ctx).
		Where("index_uid = ?", indexUID).
		Order("doc_id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteDocuments removes the documents with the given ids from an index and
// returns how many rows were actually deleted. Unknown ids are skipped, not
// errors.
func DeleteDocuments(ctx context.Context, db *gorm.DB, indexUID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Unscoped().
		Where("index_uid = ? AND doc_id IN ?", indexUID, ids).
		Delete(&domain.Document{})
	return res.RowsAffected, res.Error
}

// DeleteAllDocuments removes every document in an index and returns the
// number of rows deleted.
func DeleteAllDocuments(ctx context.Context, db *gorm.DB, indexUID string) (int64, error) {
	res := db.WithContext(ctx).
		Unscoped().
		Where("index_uid = ?", indexUID).
		Delete(&domain.Document{})
	return res.RowsAffected, res.Error
}

// ForEachDocumentBatch streams all documents (across all indexes) to fn in
// primary-key order, batchSize rows at a time. Used to rebuild the in-memory
// search registry at startup without loading the whole table at once.
func ForEachDocumentBatch(ctx context.Context, db *gorm.DB, batchSize int, fn func(docs []domain.Document) error) error {
	var batch []domain.Document
	res := db.WithContext(ctx).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		})
	return res.Error
}
