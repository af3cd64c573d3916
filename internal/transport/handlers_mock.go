package transport

import (
	"context"

	"github.com/UnendingLoop/ImageFlow/internal/model"
	"github.com/gin-gonic/gin"
)

type mockImageService struct {
	submitBatchFn       func(ctx context.Context, d *model.BatchCreateData) ([]model.UploadOutcome, error)
	getProcessedPairsFn func(ctx context.Context, batchID string) (*model.PairsResult, error)
	getImagesByStatusFn func(ctx context.Context, batchID, isProcessed string) (*model.StatusResult, error)
}

func (m *mockImageService) SubmitBatch(ctx context.Context, d *model.BatchCreateData) ([]model.UploadOutcome, error) {
	return m.submitBatchFn(ctx, d)
}

func (m *mockImageService) GetProcessedPairs(ctx context.Context, batchID string) (*model.PairsResult, error) {
	return m.getProcessedPairsFn(ctx, batchID)
}

func (m *mockImageService) GetImagesByStatus(ctx context.Context, batchID, isProcessed string) (*model.StatusResult, error) {
	return m.getImagesByStatusFn(ctx, batchID, isProcessed)
}

func init() {
	gin.SetMode(gin.TestMode)
}
