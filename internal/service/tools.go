package service

import (
	"fmt"
	"strings"

	"github.com/UnendingLoop/ImageFlow/internal/model"
)

func validateBatch(data *model.BatchCreateData) error {
	if data == nil || len(data.Files) == 0 {
		return model.ErrMissingUpload
	}
	if len(data.Files) != len(data.Metadata) {
		return model.ErrMismatchedMetadata
	}
	return nil
}

// resolveImageName - имя из метаданных, иначе имя загруженного файла
func resolveImageName(meta model.ImageMetadata, file model.UploadFile) string {
	if meta.ImageName != nil && *meta.ImageName != "" {
		return *meta.ImageName
	}
	return file.FileName
}

func normalizeFilters(f model.Filters) model.Filters {
	if f == nil {
		return model.Filters{}
	}
	return f
}

func parseProcessedFlag(raw string) (bool, error) {
	switch {
	case strings.EqualFold(raw, "true"):
		return true, nil
	case strings.EqualFold(raw, "false"):
		return false, nil
	default:
		return false, model.ErrIncorrectProcessedFlag
	}
}

// pairNames returns image names present under both prefixes, in input listing order.
func pairNames(batchID string, inputs, outputs []model.BlobObject) []string {
	outPrefix := model.OutputPrefix(batchID)
	produced := make(map[string]bool, len(outputs))
	for _, obj := range outputs {
		if name, ok := model.NameFromKey(outPrefix, obj.Key); ok {
			produced[name] = true
		}
	}

	inPrefix := model.InputPrefix(batchID)
	seen := make(map[string]bool, len(inputs))
	names := make([]string, 0, len(produced))
	for _, obj := range inputs {
		name, ok := model.NameFromKey(inPrefix, obj.Key)
		if !ok || seen[name] || !produced[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func dependencyErr(err error) error {
	return fmt.Errorf("%w: %v", model.ErrDependency, err)
}
