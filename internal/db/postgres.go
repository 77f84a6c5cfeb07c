package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/envutil"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New connects to the configured database. Postgres is the production
// driver; DB_DRIVER=sqlite switches to a local file database for
// development.
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := strings.ToLower(envutil.GetEnv("DB_DRIVER", "postgres", log))
	switch driver {
	case "sqlite":
		path := envutil.GetEnv("SQLITE_PATH", "fixloop.db", log)
		serviceLog.Info("Connecting to sqlite", "path", path)
		gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("connect to sqlite: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil
	case "postgres":
		host := envutil.GetEnv("POSTGRES_HOST", "localhost", log)
		port := envutil.GetEnv("POSTGRES_PORT", "5432", log)
		user := envutil.GetEnv("POSTGRES_USER", "postgres", log)
		password := envutil.GetEnv("POSTGRES_PASSWORD", "", log)
		name := envutil.GetEnv("POSTGRES_NAME", "fixloop", log)
		sslMode := envutil.GetEnv("POSTGRES_SSLMODE", "disable", log)

		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslMode)
		serviceLog.Info("Connecting to Postgres", "host", host, "db", name)
		gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to Postgres: %w", err)
		}
		if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

// AutoMigrateAll creates or updates every table the scoring core owns.
func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
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
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
