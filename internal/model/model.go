// Package model provides data-structs for internal app-usage
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

type JobStatus string

const (
	JobPending    JobStatus = "Pending"
	JobProcessing JobStatus = "Processing"
	JobComplete   JobStatus = "Complete"
	JobFailed     JobStatus = "Failed"
)

var JobStatusMap = map[JobStatus]bool{
	JobPending:    true,
	JobProcessing: true,
	JobComplete:   true,
	JobFailed:     true,
}

type UploadStatus string

const (
	UploadSuccess UploadStatus = "success"
	UploadError   UploadStatus = "error"
)

// SignedURLTTL - время жизни подписанных ссылок на before/after картинки
const SignedURLTTL = time.Hour

//---------------------

// Batch - одна загрузка пачки картинок
type Batch struct {
	UUID          string     `json:"UUID"`
	JobStatus     JobStatus  `json:"JobStatus"`
	EmailNotified bool       `json:"emailSent"`
	ImageCount    int        `json:"imagesCount"`
	OwnerEmail    string     `json:"email"`
	CreatedAt     *time.Time `json:"-"`
}

// ImageRecord - метаданные одной картинки из пачки
type ImageRecord struct {
	DocID       string     `json:"doc_id"`
	BatchID     string     `json:"UUID"`
	ImageName   string     `json:"ImageName"`
	Filters     Filters    `json:"FilterJson"`
	IsProcessed bool       `json:"IsProcessed"`
	CreatedAt   *time.Time `json:"-"`
	UpdatedAt   *time.Time `json:"-"`
}

// ImageFilter is an equality filter over image records; nil fields match everything.
type ImageFilter struct {
	BatchID     *string
	IsProcessed *bool
}

// ProcessingTask is the queue message announcing an image to the processing worker.
type ProcessingTask struct {
	DocID     string  `json:"doc_id"`
	BatchID   string  `json:"UUID"`
	ImageName string  `json:"ImageName"`
	Filters   Filters `json:"FilterJson"`
}

func NewProcessingTask(rec *ImageRecord) ProcessingTask {
	return ProcessingTask{
		DocID:     rec.DocID,
		BatchID:   rec.BatchID,
		ImageName: rec.ImageName,
		Filters:   rec.Filters,
	}
}

//-------------------

// DocKey derives the image record key from the batch and the image name.
func DocKey(batchID, imageName string) string {
	return batchID + "_" + imageName
}

func InputPrefix(batchID string) string {
	return batchID + "/input/"
}

func OutputPrefix(batchID string) string {
	return batchID + "/output/"
}

func InputKey(batchID, imageName string) string {
	return InputPrefix(batchID) + imageName
}

func OutputKey(batchID, imageName string) string {
	return OutputPrefix(batchID) + imageName
}

// NameFromKey returns the image name addressed by key under prefix.
// Directory markers and keys outside the prefix yield ok == false.
func NameFromKey(prefix, key string) (name string, ok bool) {
	if !strings.HasPrefix(key, prefix) || strings.HasSuffix(key, "/") {
		return "", false
	}
	name = strings.TrimPrefix(key, prefix)
	return name, name != ""
}

//-------------------

// UploadMetadata - содержимое поля metadata в multipart-форме
type UploadMetadata struct {
	Email          string          `json:"email"`
	ImagesMetadata []ImageMetadata `json:"imagesMetadata"`
}

type ImageMetadata struct {
	ImageName *string `json:"image_name,omitempty"`
	Filters   Filters `json:"filters"`
}

type UploadFile struct {
	FileName string
	Size     int64
	File     multipart.File
}

type BatchCreateData struct {
	Email    string
	Files    []UploadFile
	Metadata []ImageMetadata
}

type UploadOutcome struct {
	ImageName string       `json:"image_name"`
	BatchID   string       `json:"uuid"`
	Status    UploadStatus `json:"status"`
	ImageURL  string       `json:"image_url,omitempty"`
}

type ImagePair struct {
	FileName  string `json:"file_name"`
	BeforeURL string `json:"before_url"`
	AfterURL  string `json:"after_url"`
}

type PairsResult struct {
	BatchID string      `json:"UUID"`
	Pairs   []ImagePair `json:"image_pairs"`
}

type StatusResult struct {
	BatchID     string        `json:"UUID"`
	IsProcessed bool          `json:"IsProcessed"`
	Images      []ImageRecord `json:"images"`
}

// BlobObject - запись из листинга хранилища
type BlobObject struct {
	Key  string
	Size int64
}

// ------------------

var (
	ErrCommon500              error = errors.New("something went wrong. Try again later")            // 500
	ErrDependency             error = errors.New("failed to retrieve images")                        // 500
	ErrMissingUpload          error = errors.New("files and metadata are required")                  // 400
	ErrInvalidMetadata        error = errors.New("metadata must be a valid JSON object")             // 400
	ErrMismatchedMetadata     error = errors.New("mismatched files and metadata entries")            // 400
	ErrUploadTooLarge         error = errors.New("upload exceeds the allowed request size")          // 413
	ErrMissingBatchID         error = errors.New("UUID is required")                                 // 400
	ErrMissingStatusQuery     error = errors.New("UUID and IsProcessed parameters are required")     // 400
	ErrIncorrectProcessedFlag error = errors.New("IsProcessed must be 'true' or 'false'")            // 400
	ErrPairsNotFound          error = errors.New("no matching image pairs found for the given UUID") // 404
	ErrImagesNotFound         error = errors.New("no images found matching the criteria")            // 404
)

//--------------------

const (
	JPEG        = "image/jpeg"
	PNG         = "image/png"
	GIF         = "image/gif"
	OctetStream = "application/octet-stream"
)

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.GIF:  GIF,
	imaging.PNG:  PNG,
}

// ContentTypeByName guesses the blob content type from the image name extension.
func ContentTypeByName(imageName string) string {
	format, err := imaging.FormatFromFilename(imageName)
	if err != nil {
		return OctetStream
	}
	if cType, ok := GetCType[format]; ok {
		return cType
	}
	return OctetStream
}

//--------------------

// Filters - непрозрачный список фильтров, хранится в JSONB как есть
type Filters []json.RawMessage

func (f *Filters) Scan(value any) error {
	if value == nil {
		*f = Filters{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("invalid type %T for Filters", value)
	}

	if err := json.Unmarshal(b, f); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to Filters: %w", err)
	}
	if *f == nil {
		*f = Filters{}
	}
	return nil
}

func (f Filters) Value() (driver.Value, error) {
	if len(f) == 0 {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Filters to JSONB: %w", err)
	}

	return res, nil
}

// MarshalJSON keeps an empty filter list as [] instead of null.
func (f Filters) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal([]json.RawMessage(f))
}
