// Package testutil provides test databases and upload fixtures for the
// paperwork packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
	"github.com/Veraticus/the-paperwork-must-flow/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database seeded with uploads.
// It is closed automatically when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewUploadSeries(model.DocumentTypeBankStatement, "Acme Bank").
//			Monthly(start, 6).
//			Build()...,
//	)
func SetupTestDB(t *testing.T, uploads ...model.UploadRecord) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Uploads: uploads})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Uploads        []model.UploadRecord
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if len(opts.Uploads) > 0 {
		if err := store.SaveUploads(ctx, opts.Uploads); err != nil {
			t.Fatalf("failed to seed uploads: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// AddUploads appends uploads to the feed or fails the test.
func (db *TestDB) AddUploads(uploads ...model.UploadRecord) {
	db.t.Helper()
	if err := db.Storage.SaveUploads(context.Background(), uploads); err != nil {
		db.t.Fatalf("failed to add uploads: %v", err)
	}
}

// MustGetPattern returns the stored pattern for a stream or fails the test.
func (db *TestDB) MustGetPattern(docType model.DocumentType, source string) *model.DocumentPattern {
	db.t.Helper()
	p, err := db.Storage.GetPattern(context.Background(), docType, source)
	if err != nil {
		db.t.Fatalf("pattern %s/%s not found: %v", docType, source, err)
	}
	return p
}

// MustGetMissing returns a stored missing document or fails the test.
func (db *TestDB) MustGetMissing(id int64) *model.MissingDocument {
	db.t.Helper()
	doc, err := db.Storage.GetMissingDocument(context.Background(), id)
	if err != nil {
		db.t.Fatalf("missing document %d not found: %v", id, err)
	}
	return doc
}
