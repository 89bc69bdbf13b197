package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-index-backend/internal/domain"
)

func TestCreateIndex_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	idx, err := CreateIndex(context.Background(), db, "movies", nil)
	if err == nil || idx != nil {
		t.Fatalf("expected error creating without table, got idx=%v err=%v", idx, err)
	}
}

func TestCreateIndex_Success_PersistsAndSetsFields(t *testing.T) {
	db := newRepoDB(t, &domain.Index{})

	start := time.Now().UTC().Add(-time.Minute)
	pk := "id"
	idx, err := CreateIndex(context.Background(), db, "movies", &pk)
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if idx.UID != "movies" || idx.PrimaryKey == nil || *idx.PrimaryKey != "id" {
		t.Fatalf("unexpected Index fields: %+v", idx)
	}
	if idx.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", idx.CreatedAt)
	}
	// round-trip
	var got domain.Index
	if err := db.First(&got, "uid = ?", "movies").Error; err != nil {
		t.Fatalf("load created index: %v", err)
	}
	if got.PrimaryKey == nil || *got.PrimaryKey != "id" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateIndex_Duplicate(t *testing.T) {
	db := newRepoDB(t, &domain.Index{})
	ctx := context.Background()

	if _, err := CreateIndex(ctx, db, "movies", nil); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := CreateIndex(ctx, db, "movies", nil)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetIndex_NotFoundAndFound(t *testing.T) {
	db := newRepoDB(t, &domain.Index{})
	ctx := context.Background()

	if _, err := GetIndex(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := CreateIndex(ctx, db, "books", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := GetIndex(ctx, db, "books")
	if err != nil || got.UID != "books" {
		t.Fatalf("GetIndex: got=%+v err=%v", got, err)
	}
}

func TestIndexExists(t *testing.T) {
	db := newRepoDB(t, &domain.Index{})
	ctx := context.Background()

	ok, err := IndexExists(ctx, db, "movies")
	if err != nil || ok {
		t.Fatalf("expected exists=false, got ok=%v err=%v", ok, err)
	}
	if _, err := CreateIndex(ctx, db, "movies", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	ok, err = IndexExists(ctx, db, "movies")
	if err != nil || !ok {
		t.Fatalf("expected exists=true, got ok=%v err=%v", ok, err)
	}
}

func TestListIndexesPage_OrderAndPagination(t *testing.T) {
	db := newRepoDB(t, &domain.Index{})
	ctx := context.Background()

	for _, uid := range []string{"cc", "aa", "bb"} {
		if _, err := CreateIndex(ctx, db, uid, nil); err != nil {
			t.Fatalf("create %s: %v", uid, err)
		}
	}

	total, err := CountIndexes(ctx, db)
	if err != nil || total != 3 {
		t.Fatalf("CountIndexes: total=%d err=%v", total, err)
	}

	page, err := ListIndexesPage(ctx, db, 0, 2)
	if err != nil {
		t.Fatalf("ListIndexesPage: %v", err)
	}
	if len(page) != 2 || page[0].UID != "aa" || page[1].UID != "bb" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = ListIndexesPage(ctx, db, 2, 2)
	if err != nil || len(page) != 1 || page[0].UID != "cc" {
		t.Fatalf("unexpected second page: %+v err=%v", page, err)
	}
}

func TestUpdateIndexPrimaryKey_AndNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Index{})
	ctx := context.Background()

	if err := UpdateIndexPrimaryKey(ctx, db, "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := CreateIndex(ctx, db, "movies", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	pk := "movie_id"
	if err := UpdateIndexPrimaryKey(ctx, db, "movies", &pk); err != nil {
		t.Fatalf("UpdateIndexPrimaryKey: %v", err)
	}
	got, err := GetIndex(ctx, db, "movies")
	if err != nil || got.PrimaryKey == nil || *got.PrimaryKey != "movie_id" {
		t.Fatalf("primary key not persisted: got=%+v err=%v", got, err)
	}
}

func TestDeleteIndex_CascadesToDocuments(t *testing.T) {
	db := newRepoDB(t, &domain.Index{}, &domain.Document{})
	db.Exec("PRAGMA foreign_keys=ON;")
	ctx := context.Background()

	if err := DeleteIndex(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := CreateIndex(ctx, db, "movies", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	docs := []domain.Document{
		{IndexUID: "movies", DocID: "1", Fields: `{"id":1}`},
		{IndexUID: "movies", DocID: "2", Fields: `{"id":2}`},
	}
	if err := UpsertDocuments(ctx, db, docs); err != nil {
		t.Fatalf("UpsertDocuments: %v", err)
	}

	if err := DeleteIndex(ctx, db, "movies"); err != nil {
		t.Fatalf("DeleteIndex: %v", err)
	}
	var cnt int64
	if err := db.Model(&domain.Document{}).Where("index_uid = ?", "movies").Count(&cnt).Error; err != nil {
		t.Fatalf("count docs: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected documents to cascade-delete, got %d", cnt)
	}
}
