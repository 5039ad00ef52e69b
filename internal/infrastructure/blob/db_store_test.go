package blob

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

func setupDBStore(t *testing.T) (*DBStore, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "blob.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.AttachmentBlob{}); err != nil {
		t.Fatalf("auto migrate attachment_blobs: %v", err)
	}
	return NewDBStore(db), db
}

func TestDBStoreRoundTrip(t *testing.T) {
	store, _ := setupDBStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k1", []byte("%PDF-1.4"), "application/pdf"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	data, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("Get() = %q", data)
	}

	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v", err)
	}
}

func TestDBStoreRollsBackWithTransaction(t *testing.T) {
	store, db := setupDBStore(t)
	ctx := context.Background()

	rollback := errors.New("rollback")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := store.Put(ports.WithTxContext(ctx, tx), "k2", []byte("x"), "text/plain"); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("Transaction() error = %v", err)
	}
	if _, err := store.Get(ctx, "k2"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Get() after rollback error = %v", err)
	}
}
