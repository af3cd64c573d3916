// Package repository provides methods to work with DB
package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"path/filepath"
	"time"

	"github.com/UnendingLoop/ImageFlow/internal/model"
	"github.com/UnendingLoop/ImageFlow/internal/repository/imgpostgres"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/wb-go/wbf/dbpg"
)

// RecordRepo - хранилище документов: пачки и записи по каждой картинке
type RecordRepo interface {
	UpsertBatch(ctx context.Context, b *model.Batch) error
	UpsertImage(ctx context.Context, rec *model.ImageRecord) error
	FindImages(ctx context.Context, filter model.ImageFilter) ([]model.ImageRecord, error)
	FetchStale(ctx context.Context, olderThan time.Duration, limit int) ([]model.ImageRecord, error)
	TouchImage(ctx context.Context, docID string) error
}

func NewPostgresRecordRepo(dbconn *dbpg.DB) RecordRepo {
	return imgpostgres.PostgresRepo{DB: dbconn}
}

func ConnectWithRetries(dsnLink string, retryCount int, idleTime time.Duration) *dbpg.DB {
	dbOptions := dbpg.Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 10 * time.Minute,
	}
	var dbConn *dbpg.DB
	var err error

	for range retryCount {
		dbConn, err = dbpg.New(dsnLink, nil, &dbOptions)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to PGDB: %s\nWaiting %v before next retry...", err, idleTime)
		time.Sleep(idleTime)
	}

	if err != nil {
		log.Fatal("Failed to connect to DB. Exiting the app...")
	}

	return dbConn
}

func MigrateWithRetries(db *sql.DB, migrationsPath string, retries int, idle time.Duration) {
	for i := range retries {
		log.Printf("Migration try #%d...", i+1)
		err := RunMigrate(db, migrationsPath)
		if err == nil {
			return
		}
		log.Printf("Migration try #%d was unsuccessful: %v", i+1, err)
		if i < retries-1 {
			log.Printf("Waiting %v before next try...", idle)
			time.Sleep(idle)
		}
	}
	log.Fatalln("Out of migration retries. Exiting...")
}

func RunMigrate(db *sql.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return err
	}

	sourceURL := "file://" + absPath
	log.Println("Running migrations from:", sourceURL)

	m, err := migrate.NewWithDatabaseInstance(
		sourceURL,
		"postgres",
		driver,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	log.Println("Database migrations applied successfully")
	return nil
}
