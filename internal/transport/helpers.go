package transport

import (
	"errors"
	"io"
	"log"

	"github.com/UnendingLoop/ImageFlow/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500),
		errors.Is(err, model.ErrDependency):
		return 500
	case errors.Is(err, model.ErrPairsNotFound),
		errors.Is(err, model.ErrImagesNotFound):
		return 404
	case errors.Is(err, model.ErrUploadTooLarge):
		return 413
	case errors.Is(err, model.ErrMissingUpload),
		errors.Is(err, model.ErrInvalidMetadata),
		errors.Is(err, model.ErrMismatchedMetadata),
		errors.Is(err, model.ErrMissingBatchID),
		errors.Is(err, model.ErrMissingStatusQuery),
		errors.Is(err, model.ErrIncorrectProcessedFlag):
		return 400
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
