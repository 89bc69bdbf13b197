// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Index model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an index is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - When an insert collides with an existing UID, CreateIndex returns
//     ErrDuplicate.
//   - On other DB errors (connectivity issues, etc.), the raw gorm error is
//     propagated.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.IndexService) which enforces business rules such as UID
// validation and task registration.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an insert collided with an existing row on a
// primary-key or unique constraint.
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation detects primary-key and unique-index collisions.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateIndex inserts a new Index row with the given UID and optional
// primary-key attribute. CreatedAt/UpdatedAt are set to UTC.
//
// Returns ErrDuplicate if an index with the same UID already exists.
func CreateIndex(ctx context.Context, db *gorm.DB, uid string, primaryKey *string) (*domain.Index, error) {
	now := time.Now().UTC()
	idx := &domain.Index{
		UID:        uid,
		PrimaryKey: primaryKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.WithContext(ctx).Create(idx).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return idx, nil
}

// GetIndex fetches a single index by UID, or ErrNotFound if missing.
func GetIndex(ctx context.Context, db *gorm.DB, uid string) (*domain.Index, error) {
	var idx domain.Index
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&idx).Error
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

// IndexExists reports whether an index with the given UID exists.
func IndexExists(ctx context.Context, db *gorm.DB, uid string) (bool, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Index{}).
		Where("uid = ?", uid).
		Count(&total).Error
	return total > 0, err
}

// CountIndexes returns the total number of indexes.
func CountIndexes(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Index{}).
		Count(&total).Error
	return total, err
}

// ListIndexesPage returns a paginated slice of indexes ordered by UID
// ascending. Use CountIndexes to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListIndexesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Index, error) {
	var out []domain.Index
	err := db.WithContext(ctx).
		Order("uid asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateIndexPrimaryKey sets the primary-key attribute of an index. If no
// rows are affected (index missing), it returns ErrNotFound.
func UpdateIndexPrimaryKey(ctx context.Context, db *gorm.DB, uid string, primaryKey *string) error {
	res := db.WithContext(ctx).
		Model(&domain.Index{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"primary_key": primaryKey,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchIndex bumps the index's UpdatedAt, used after document mutations so
// list ETags change. Missing index returns ErrNotFound.
func TouchIndex(ctx context.Context, db *gorm.DB, uid string) error {
	res := db.WithContext(ctx).
		Model(&domain.Index{}).
		Where("uid = ?", uid).
		Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteIndex removes an index row. Documents cascade via the FK constraint.
// If no rows are affected, it returns ErrNotFound.
func DeleteIndex(ctx context.Context, db *gorm.DB, uid string) error {
	res := db.WithContext(ctx).
		Unscoped().
		Delete(&domain.Index{}, "uid = ?", uid)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
