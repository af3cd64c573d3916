package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/UnendingLoop/ImageFlow/internal/model"
	"github.com/wb-go/wbf/retry"
)

// MOCK RESPOSITORY
type mockRepo struct {
	upsertBatchFn func(ctx context.Context, b *model.Batch) error
	upsertImageFn func(ctx context.Context, rec *model.ImageRecord) error
	findImagesFn  func(ctx context.Context, filter model.ImageFilter) ([]model.ImageRecord, error)
	fetchStaleFn  func(ctx context.Context, olderThan time.Duration, limit int) ([]model.ImageRecord, error)
	touchImageFn  func(ctx context.Context, docID string) error
}

func (m *mockRepo) UpsertBatch(ctx context.Context, b *model.Batch) error {
	return m.upsertBatchFn(ctx, b)
}

func (m *mockRepo) UpsertImage(ctx context.Context, rec *model.ImageRecord) error {
	return m.upsertImageFn(ctx, rec)
}

func (m *mockRepo) FindImages(ctx context.Context, filter model.ImageFilter) ([]model.ImageRecord, error) {
	return m.findImagesFn(ctx, filter)
}

func (m *mockRepo) FetchStale(ctx context.Context, olderThan time.Duration, limit int) ([]model.ImageRecord, error) {
	return m.fetchStaleFn(ctx, olderThan, limit)
}

func (m *mockRepo) TouchImage(ctx context.Context, docID string) error {
	return m.touchImageFn(ctx, docID)
}

// MOCK STORAGE
type mockStorage struct {
	putFn       func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
	listFn      func(ctx context.Context, prefix string) ([]model.BlobObject, error)
	signedURLFn func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) List(ctx context.Context, prefix string) ([]model.BlobObject, error) {
	return m.listFn(ctx, prefix)
}

func (m *mockStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return m.signedURLFn(ctx, key, ttl)
}

func (m *mockStorage) PublicURL(key string) string {
	return "https://storage.test/" + key
}

// MOCK PUBLISHER
type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

// MOCK для multipart.File
type fakeMultipartFile struct {
	*bytes.Reader
}

func (f *fakeMultipartFile) Close() error {
	return nil
}
