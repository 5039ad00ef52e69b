package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

// DBStore keeps blobs in attachment_blobs so they commit or roll back with the metadata row.
type DBStore struct {
	db *gorm.DB
}

var _ ports.BlobStore = (*DBStore)(nil)

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return s.db.WithContext(ctx), nil
	}
	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (s *DBStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	db, err := s.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.AttachmentBlob{
		BlobKey:     key,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Persistence(err, "insert attachment blob")
	}
	return nil
}

func (s *DBStore) Get(ctx context.Context, key string) ([]byte, error) {
	db, err := s.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var row model.AttachmentBlob
	if err := db.Where("blob_key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Wrapf(ports.ErrNotFound, "blob %s", key)
		}
		return nil, errs.Persistence(err, "query attachment blob")
	}
	return row.Data, nil
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	db, err := s.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("blob_key = ?", key).Delete(&model.AttachmentBlob{}).Error; err != nil {
		return errs.Persistence(err, "delete attachment blob")
	}
	return nil
}
