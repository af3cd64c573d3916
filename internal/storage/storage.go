// Package storage picks and connects the blob backend for uploaded images
package storage

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/UnendingLoop/ImageFlow/internal/appconfig"
	"github.com/UnendingLoop/ImageFlow/internal/model"
	"github.com/UnendingLoop/ImageFlow/internal/storage/miniostorage"
	"github.com/UnendingLoop/ImageFlow/internal/storage/s3storage"
)

// BlobStore - общий контракт обоих бэкендов, раскладка ключей у них одинаковая
type BlobStore interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	List(ctx context.Context, prefix string) ([]model.BlobObject, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

var (
	_ BlobStore = (*miniostorage.MinioImageStorage)(nil)
	_ BlobStore = (*s3storage.S3ImageStorage)(nil)
)

// NewImgStorage connects to the configured backend, retrying until ctx is done.
func NewImgStorage(ctx context.Context, cfg appconfig.StorageSettings, delay time.Duration) (BlobStore, error) {
	for {
		log.Printf("Connecting to IMG-storage (%s)...", cfg.Backend)
		client, err := connect(ctx, cfg)
		if err == nil {
			log.Println("Successfully connected IMG-storage!")
			return client, nil
		}
		log.Printf("Failed to init connection to IMG-storage: %v\nNext retry in %v...", err, delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func connect(ctx context.Context, cfg appconfig.StorageSettings) (BlobStore, error) {
	if cfg.Backend == appconfig.BackendS3 {
		return s3storage.NewS3Client(ctx, s3storage.Options{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.Bucket,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	}

	return miniostorage.NewMinioClient(ctx, miniostorage.Options{
		Endpoint:      cfg.MinioEndpoint,
		User:          cfg.MinioUser,
		Pass:          cfg.MinioPass,
		Bucket:        cfg.Bucket,
		UseSSL:        cfg.MinioUseSSL,
		Region:        cfg.S3Region,
		PublicBaseURL: cfg.PublicBaseURL,
	})
}
