package main

import (
	"context"

	"github.com/UnendingLoop/ImageFlow/internal/model"
)

type ImageAPIService interface {
	SubmitBatch(ctx context.Context, data *model.BatchCreateData) ([]model.UploadOutcome, error)
	GetProcessedPairs(ctx context.Context, batchID string) (*model.PairsResult, error)
	GetImagesByStatus(ctx context.Context, batchID, isProcessed string) (*model.StatusResult, error)
	ReviveUnprocessed(ctx context.Context, limit int)
}
