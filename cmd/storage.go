package cmd

import (
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/storage"
	"github.com/frahmantamala/expense-tracker/internal/storage/memory"
	pgstore "github.com/frahmantamala/expense-tracker/internal/storage/postgres"
)

// openStorage builds the repository for the configured driver. The returned
// close func releases any database connection.
func openStorage(cfg internal.StorageConfig, logger *slog.Logger) (storage.Repository, func() error, error) {
	noop := func() error { return nil }
	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	switch cfg.Driver {
	case internal.StorageMemory:
		logger.Info("using in-memory storage; data is lost on restart")
		return memory.NewStore(), noop, nil

	case internal.StoragePostgres:
		db, err := initDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), gormConfig)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to open gorm on postgres: %w", err)
		}
		store := pgstore.NewStore(gdb)
		if err := store.SeedDefaultCategories(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to seed categories (did you run migrate?): %w", err)
		}
		logger.Info("using postgres storage")
		return store, db.Close, nil

	case internal.StorageSQLite:
		gdb, err := gorm.Open(sqlite.Open(cfg.Source), gormConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, err
		}
		// sqlite serializes writers anyway
		sqlDB.SetMaxOpenConns(1)
		if err := pgstore.AutoMigrate(gdb); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to migrate sqlite: %w", err)
		}
		store := pgstore.NewStore(gdb)
		if err := store.SeedDefaultCategories(); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to seed categories: %w", err)
		}
		logger.Info("using sqlite storage", "source", cfg.Source)
		return store, sqlDB.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// initDB initializes the postgres connection pool
func initDB(cfg internal.StorageConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbConn, nil
}
