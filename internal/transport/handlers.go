// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/UnendingLoop/ImageFlow/internal/model"
	"github.com/UnendingLoop/ImageFlow/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

const (
	defaultMaxUpload int64 = 128 << 20
	maxFormMemory    int64 = 32 << 20
)

type ImageHandler struct {
	service   ImageService
	maxUpload int64
	maxMemory int64
}

type ImageService interface {
	SubmitBatch(ctx context.Context, data *model.BatchCreateData) ([]model.UploadOutcome, error)
	GetProcessedPairs(ctx context.Context, batchID string) (*model.PairsResult, error)
	GetImagesByStatus(ctx context.Context, batchID, isProcessed string) (*model.StatusResult, error)
}

// NewImageHandler - maxUpload ограничивает размер всего тела запроса на загрузку,
// в памяти держится не больше maxFormMemory, остальное multipart сбрасывает во временные файлы
func NewImageHandler(svc ImageService, maxUpload int64) *ImageHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &ImageHandler{
		service:   svc,
		maxUpload: maxUpload,
		maxMemory: min(maxUpload, maxFormMemory),
	}
}

func (h ImageHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h ImageHandler) UploadImages(ctx *ginext.Context) {
	logger := mwlogger.LoggerFromContext(ctx.Request.Context())

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.maxUpload)
	if err := ctx.Request.ParseMultipartForm(h.maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx.JSON(errorCodeDefiner(model.ErrUploadTooLarge), map[string]string{"error": model.ErrUploadTooLarge.Error()})
			return
		}
		ctx.JSON(400, map[string]string{"error": model.ErrMissingUpload.Error()})
		return
	}
	form := ctx.Request.MultipartForm
	defer func() {
		if err := form.RemoveAll(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove multipart temp files")
		}
	}()

	headers := form.File["files"]
	rawMeta, ok := form.Value["metadata"]
	if len(headers) == 0 || !ok || len(rawMeta) == 0 || rawMeta[0] == "" {
		ctx.JSON(400, map[string]string{"error": model.ErrMissingUpload.Error()})
		return
	}

	// парсинг метаданных
	meta, err := parseMetadata(rawMeta[0])
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	// открываем все части с файлами
	files := make([]model.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			logger.Error().Err(err).Str("file", fh.Filename).Msg("Failed to open uploaded file")
			ctx.JSON(500, map[string]string{"error": model.ErrCommon500.Error()})
			closeUploads(files)
			return
		}
		files = append(files, model.UploadFile{FileName: fh.Filename, Size: fh.Size, File: f})
	}
	defer closeUploads(files)

	// передаем в сервис
	res, err := h.service.SubmitBatch(ctx.Request.Context(), &model.BatchCreateData{
		Email:    meta.Email,
		Files:    files,
		Metadata: meta.ImagesMetadata,
	})
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) GetProcessedImages(ctx *ginext.Context) {
	batchID := ctx.Query("UUID")

	res, err := h.service.GetProcessedPairs(ctx.Request.Context(), batchID)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) GetImagesByStatus(ctx *ginext.Context) {
	batchID := ctx.Query("UUID")
	isProcessed := ctx.Query("IsProcessed")

	res, err := h.service.GetImagesByStatus(ctx.Request.Context(), batchID, isProcessed)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func parseMetadata(raw string) (*model.UploadMetadata, error) {
	var meta model.UploadMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, model.ErrInvalidMetadata
	}
	if meta.ImagesMetadata == nil {
		return nil, model.ErrMissingUpload
	}
	return &meta, nil
}

func closeUploads(files []model.UploadFile) {
	for _, f := range files {
		closeFileFlow(f.File)
	}
}
