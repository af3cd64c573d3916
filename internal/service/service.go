// Package service provides business-logic for the app
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/ImageFlow/internal/model"
	"github.com/UnendingLoop/ImageFlow/internal/mwlogger"
	"github.com/UnendingLoop/ImageFlow/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

type ImageService struct {
	repo      repository.RecordRepo
	publisher TaskPublisher
	storage   ImageStorage
}

func NewImageService(recRepo repository.RecordRepo, pub TaskPublisher, strg ImageStorage) *ImageService {
	return &ImageService{
		repo:      recRepo,
		publisher: pub,
		storage:   strg,
	}
}

// TaskPublisher - контракт для работы с очередью
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// ImageStorage - контракт для работы с хранилищем
type ImageStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	List(ctx context.Context, prefix string) ([]model.BlobObject, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

// Стратегия ретрая отправки в очередь: короткая, запрос на загрузку не должен из-за неё висеть
var retryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    200 * time.Millisecond,
	Backoff:  2,
}

// staleAfter - через сколько необработанная картинка анонсируется в очередь повторно
const staleAfter = 10 * time.Minute

// SubmitBatch registers a batch and ingests its images one by one in input order.
// A failed image is reported in its outcome and never aborts the batch.
func (c ImageService) SubmitBatch(ctx context.Context, data *model.BatchCreateData) ([]model.UploadOutcome, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if err := validateBatch(data); err != nil {
		return nil, err
	}

	// генерируем UUID пачки
	batchID := uuid.NewString()
	now := time.Now().UTC()

	// пачка пишется до картинок и не откатывается
	batch := &model.Batch{
		UUID:          batchID,
		JobStatus:     model.JobPending,
		EmailNotified: false,
		ImageCount:    len(data.Files),
		OwnerEmail:    data.Email,
		CreatedAt:     &now,
	}
	if err := c.repo.UpsertBatch(ctx, batch); err != nil {
		logger.Error().Err(err).Str("batch", batchID).Msg("Failed to save batch in DB")
		return nil, model.ErrCommon500
	}
	logger.Info().Str("batch", batchID).Int("images", batch.ImageCount).Msg("Batch registered")

	outcomes := make([]model.UploadOutcome, 0, len(data.Files))
	for i, file := range data.Files {
		outcomes = append(outcomes, c.ingestImage(ctx, batchID, file, data.Metadata[i]))
	}

	return outcomes, nil
}

func (c ImageService) ingestImage(ctx context.Context, batchID string, file model.UploadFile, meta model.ImageMetadata) model.UploadOutcome {
	logger := mwlogger.LoggerFromContext(ctx)

	imageName := resolveImageName(meta, file)
	outcome := model.UploadOutcome{
		ImageName: imageName,
		BatchID:   batchID,
		Status:    model.UploadError,
	}

	// кладем в хранилище
	key := model.InputKey(batchID, imageName)
	if err := c.storage.Put(ctx, key, file.Size, model.ContentTypeByName(imageName), file.File); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to upload image to Storage")
		return outcome
	}

	// запись метаданных только после успешной загрузки блоба
	now := time.Now().UTC()
	rec := &model.ImageRecord{
		DocID:       model.DocKey(batchID, imageName),
		BatchID:     batchID,
		ImageName:   imageName,
		Filters:     normalizeFilters(meta.Filters),
		IsProcessed: false,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	if err := c.repo.UpsertImage(ctx, rec); err != nil {
		logger.Error().Err(err).Str("doc_id", rec.DocID).Msg("Failed to save image metadata in DB")
		return outcome
	}

	c.announce(ctx, rec)

	outcome.Status = model.UploadSuccess
	outcome.ImageURL = c.storage.PublicURL(key)
	return outcome
}

// announce publishes a processing task; failures are only logged.
func (c ImageService) announce(ctx context.Context, rec *model.ImageRecord) bool {
	if c.publisher == nil {
		return false
	}
	logger := mwlogger.LoggerFromContext(ctx)

	payload, err := json.Marshal(model.NewProcessingTask(rec))
	if err != nil {
		logger.Error().Err(err).Str("doc_id", rec.DocID).Msg("Failed to encode processing task")
		return false
	}

	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(rec.DocID), payload); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish image %q to task-queue", rec.DocID))
		return false
	}
	return true
}

// GetProcessedPairs pairs input and output blobs of a batch by image name.
func (c ImageService) GetProcessedPairs(ctx context.Context, batchID string) (*model.PairsResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if batchID == "" {
		return nil, model.ErrMissingBatchID
	}

	inputs, err := c.storage.List(ctx, model.InputPrefix(batchID))
	if err != nil {
		logger.Error().Err(err).Str("batch", batchID).Msg("Failed to list input images")
		return nil, dependencyErr(err)
	}
	outputs, err := c.storage.List(ctx, model.OutputPrefix(batchID))
	if err != nil {
		logger.Error().Err(err).Str("batch", batchID).Msg("Failed to list output images")
		return nil, dependencyErr(err)
	}

	names := pairNames(batchID, inputs, outputs)
	if len(names) == 0 {
		return nil, model.ErrPairsNotFound
	}

	pairs := make([]model.ImagePair, 0, len(names))
	for _, name := range names {
		before, err := c.storage.SignedURL(ctx, model.InputKey(batchID, name), model.SignedURLTTL)
		if err != nil {
			logger.Error().Err(err).Str("batch", batchID).Msg("Failed to sign input image URL")
			return nil, dependencyErr(err)
		}
		after, err := c.storage.SignedURL(ctx, model.OutputKey(batchID, name), model.SignedURLTTL)
		if err != nil {
			logger.Error().Err(err).Str("batch", batchID).Msg("Failed to sign output image URL")
			return nil, dependencyErr(err)
		}
		pairs = append(pairs, model.ImagePair{FileName: name, BeforeURL: before, AfterURL: after})
	}

	return &model.PairsResult{BatchID: batchID, Pairs: pairs}, nil
}

func (c ImageService) GetImagesByStatus(ctx context.Context, batchID, isProcessedRaw string) (*model.StatusResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if batchID == "" || isProcessedRaw == "" {
		return nil, model.ErrMissingStatusQuery
	}
	isProcessed, err := parseProcessedFlag(isProcessedRaw)
	if err != nil {
		return nil, err
	}

	images, err := c.repo.FindImages(ctx, model.ImageFilter{BatchID: &batchID, IsProcessed: &isProcessed})
	if err != nil {
		logger.Error().Err(err).Str("batch", batchID).Bool("processed", isProcessed).Msg("Failed to fetch images from DB")
		return nil, dependencyErr(err)
	}
	if len(images) == 0 {
		return nil, model.ErrImagesNotFound
	}

	return &model.StatusResult{BatchID: batchID, IsProcessed: isProcessed, Images: images}, nil
}

// ReviveUnprocessed re-announces images the worker has not picked up for a while.
func (c ImageService) ReviveUnprocessed(ctx context.Context, limit int) {
	logger := mwlogger.LoggerFromContext(ctx)

	stale, err := c.repo.FetchStale(ctx, staleAfter, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load stale images from DB")
		return
	}

	for i := range stale {
		if ctx.Err() != nil {
			logger.Info().Int("left", len(stale)-i).Msg("Revive interrupted by shutdown")
			return
		}
		if !c.announce(ctx, &stale[i]) {
			continue
		}
		if err := c.repo.TouchImage(ctx, stale[i].DocID); err != nil {
			logger.Error().Err(err).Str("doc_id", stale[i].DocID).Msg("Failed to touch re-announced image")
		}
	}
}
