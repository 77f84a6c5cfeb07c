package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

// TxRunner owns transaction boundaries so services can compose repo calls
// atomically without reaching for *gorm.DB directly.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type txRunner struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTxRunner(db *gorm.DB, baseLog *logger.Logger) TxRunner {
	return &txRunner{db: db, log: baseLog.With("service", "TxRunner")}
}

func (r *txRunner) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}
