// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind conditional
// responses: the list endpoints derive weak ETags from a collection's row
// count and newest update time.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/domain"
)

// collectionStats runs the two cheap queries shared by every stats helper:
// a row count, then the greatest updated_at. The timestamp is read with
// ORDER BY/LIMIT rather than MAX() because SQLite types MAX(updated_at) as
// TEXT. A nil timestamp means the collection is empty.
func collectionStats(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// IndexesStats returns the total number of indexes and the newest UpdatedAt
// among them, or (0, nil) when none exist.
func IndexesStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return collectionStats(db.WithContext(ctx).Model(&domain.Index{}))
}

// DocumentsStats returns the total number of documents in an index and the
// newest UpdatedAt among them, or (0, nil) when the index is empty or does
// not exist.
func DocumentsStats(ctx context.Context, db *gorm.DB, indexUID string) (int64, *time.Time, error) {
	return collectionStats(db.WithContext(ctx).Model(&domain.Document{}).Where("index_uid = ?", indexUID))
}
