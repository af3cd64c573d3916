// Package miniostorage provides structure to work with minio-storage
package miniostorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/UnendingLoop/ImageFlow/internal/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Options struct {
	Endpoint      string
	User          string
	Pass          string
	Bucket        string
	UseSSL        bool
	Region        string
	PublicBaseURL string
}

type MinioImageStorage struct {
	bucket     string
	client     *minio.Client
	publicBase string
}

func NewMinioClient(ctx context.Context, opts Options) (*MinioImageStorage, error) {
	bucket := opts.Bucket
	if bucket == "" {
		bucket = "default"
		log.Printf("Bucket name is empty. Using default value %q...", bucket)
	}

	// подключаемся к минио - создаем клиента
	strg, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.User, opts.Pass, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	// создаем бакет если его нет
	if err := ensureBucket(ctx, strg, bucket, opts.Region); err != nil {
		log.Println("Failed to create bucket in MinIO:", err)
		return nil, err
	}

	return newStorage(strg, bucket, opts.PublicBaseURL), nil
}

func newStorage(client *minio.Client, bucket, publicBase string) *MinioImageStorage {
	if publicBase == "" {
		publicBase = client.EndpointURL().String() + "/" + bucket
	}
	return &MinioImageStorage{bucket: bucket, client: client, publicBase: strings.TrimSuffix(publicBase, "/")}
}

func (s *MinioImageStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// List - все объекты под префиксом, рекурсивно
func (s *MinioImageStorage) List(ctx context.Context, prefix string) ([]model.BlobObject, error) {
	objects := make([]model.BlobObject, 0)

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects with prefix %s: %w", prefix, obj.Err)
		}
		objects = append(objects, model.BlobObject{Key: obj.Key, Size: obj.Size})
	}

	return objects, nil
}

func (s *MinioImageStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinioImageStorage) PublicURL(key string) string {
	return s.publicBase + "/" + escapeKey(key)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}
