// Package testutil provides the shared harness for repository integration
// tests. Tests are skipped unless TEST_POSTGRES_DSN points at a disposable
// database; every test runs inside a transaction that is rolled back.
package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

var (
	once    sync.Once
	shared  *gorm.DB
	openErr error
)

// Logger returns a development-mode logger for tests.
func Logger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// DB returns the shared migrated database, skipping the test when no DSN is
// configured.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping database test")
	}
	once.Do(func() {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			openErr = err
			return
		}
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			openErr = err
			return
		}
		openErr = db.AutoMigrate(
			&domain.Tenant{},
			&domain.Location{},
			&domain.Review{},
			&domain.Theme{},
			&domain.ReviewTheme{},
			&domain.ParameterSetVersion{},
			&domain.RuleSetVersion{},
			&domain.ScoreRun{},
			&domain.ReviewScore{},
			&domain.ThemeScore{},
			&domain.Task{},
			&domain.FixScore{},
		)
		if openErr == nil {
			shared = db
		}
	})
	if openErr != nil {
		t.Fatalf("open test database: %v", openErr)
	}
	return shared
}

// Tx begins a transaction that is rolled back when the test finishes, so
// tests never leak rows into each other.
func Tx(t *testing.T) *gorm.DB {
	t.Helper()
	tx := DB(t).Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}
