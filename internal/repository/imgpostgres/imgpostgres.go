package imgpostgres

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/UnendingLoop/ImageFlow/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

// UpsertBatch - запись пачки по её UUID, повторная запись перезаписывает документ целиком
func (p PostgresRepo) UpsertBatch(ctx context.Context, b *model.Batch) error {
	query := `INSERT INTO batch_uploads (uuid, job_status, email_sent, images_count, email, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (uuid) DO UPDATE SET
		job_status = EXCLUDED.job_status,
		email_sent = EXCLUDED.email_sent,
		images_count = EXCLUDED.images_count,
		email = EXCLUDED.email`

	if _, err := p.DB.Master.ExecContext(ctx, query, b.UUID, b.JobStatus, b.EmailNotified, b.ImageCount, b.OwnerEmail, b.CreatedAt); err != nil {
		return fmt.Errorf("upsert batch %q: %w", b.UUID, err)
	}
	return nil
}

// UpsertImage - запись метаданных картинки по doc_id
func (p PostgresRepo) UpsertImage(ctx context.Context, rec *model.ImageRecord) error {
	query := `INSERT INTO image_metadata (doc_id, uuid, image_name, filter_json, is_processed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (doc_id) DO UPDATE SET
		uuid = EXCLUDED.uuid,
		image_name = EXCLUDED.image_name,
		filter_json = EXCLUDED.filter_json,
		is_processed = EXCLUDED.is_processed,
		updated_at = EXCLUDED.updated_at`

	if _, err := p.DB.Master.ExecContext(ctx, query, rec.DocID, rec.BatchID, rec.ImageName, rec.Filters, rec.IsProcessed, rec.CreatedAt, rec.UpdatedAt); err != nil {
		return fmt.Errorf("upsert image %q: %w", rec.DocID, err)
	}
	return nil
}

func (p PostgresRepo) FindImages(ctx context.Context, filter model.ImageFilter) ([]model.ImageRecord, error) {
	conds := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if filter.BatchID != nil {
		args = append(args, *filter.BatchID)
		conds = append(conds, fmt.Sprintf("uuid = $%d", len(args)))
	}
	if filter.IsProcessed != nil {
		args = append(args, *filter.IsProcessed)
		conds = append(conds, fmt.Sprintf("is_processed = $%d", len(args)))
	}

	query := `SELECT doc_id, uuid, image_name, filter_json, is_processed, created_at, updated_at
	FROM image_metadata`
	if len(conds) > 0 {
		query += "\n\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\tORDER BY created_at, doc_id"

	return p.queryImages(ctx, query, args...)
}

// FetchStale - необработанные записи, которые давно не трогали
func (p PostgresRepo) FetchStale(ctx context.Context, olderThan time.Duration, limit int) ([]model.ImageRecord, error) {
	query := `SELECT doc_id, uuid, image_name, filter_json, is_processed, created_at, updated_at
	FROM image_metadata
	WHERE is_processed = FALSE
	AND updated_at < $1
	ORDER BY updated_at
	LIMIT $2`

	return p.queryImages(ctx, query, time.Now().UTC().Add(-olderThan), limit)
}

func (p PostgresRepo) TouchImage(ctx context.Context, docID string) error {
	query := `UPDATE image_metadata SET updated_at = now() WHERE doc_id = $1`

	res, err := p.DB.Master.ExecContext(ctx, query, docID)
	if err != nil {
		return fmt.Errorf("touch image %q: %w", docID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch image %q: %w", docID, err)
	}
	if n == 0 {
		return model.ErrImagesNotFound
	}
	return nil
}

func (p PostgresRepo) queryImages(ctx context.Context, query string, args ...any) ([]model.ImageRecord, error) {
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	images := make([]model.ImageRecord, 0)
	for rows.Next() {
		var rec model.ImageRecord
		if err := rows.Scan(&rec.DocID,
			&rec.BatchID,
			&rec.ImageName,
			&rec.Filters,
			&rec.IsProcessed,
			&rec.CreatedAt,
			&rec.UpdatedAt); err != nil {
			return nil, err
		}
		images = append(images, rec)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return images, nil
}
