package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"qualtrack/internal/errs"
	"qualtrack/internal/ports"
)

type QualificationRepository struct {
	db *gorm.DB
}

var _ ports.QualificationRepository = (*QualificationRepository)(nil)

func NewQualificationRepository(db *gorm.DB) *QualificationRepository {
	return &QualificationRepository{db: db}
}

func (r *QualificationRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// inTx runs fn on the caller's transaction, or opens one for multi-statement writes.
func (r *QualificationRepository) inTx(ctx context.Context, fn func(db *gorm.DB) error) error {
	if ports.TxFromContext(ctx) != nil {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return err
		}
		return fn(db)
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// takeErr maps a missing row to ports.ErrNotFound and everything else to a persistence failure.
func takeErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Wrap(ports.ErrNotFound, msg)
	}
	return errs.Persistence(err, msg)
}
