package miniostorage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
)

// клиент без сети: регион задан, поэтому presign не ходит за location бакета
func newOfflineStorage(t *testing.T, publicBase string) *MinioImageStorage {
	t.Helper()

	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("user", "secret", ""),
		Secure: false,
		Region: "us-east-1",
	})
	require.NoError(t, err)

	return newStorage(client, "images", publicBase)
}

func TestMinioImageStorage_PublicURL(t *testing.T) {
	s := newOfflineStorage(t, "")
	require.Equal(t, "http://localhost:9000/images/b1/input/a%20b.jpg", s.PublicURL("b1/input/a b.jpg"))

	s = newOfflineStorage(t, "https://cdn.example.com/")
	require.Equal(t, "https://cdn.example.com/b1/input/a.jpg", s.PublicURL("b1/input/a.jpg"))
}

func TestMinioImageStorage_SignedURL(t *testing.T) {
	s := newOfflineStorage(t, "")

	raw, err := s.SignedURL(context.Background(), "b1/output/a.jpg", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/images/b1/output/a.jpg", u.Path)
	require.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	require.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestMinioImageStorage_PutNilReader(t *testing.T) {
	s := newOfflineStorage(t, "")
	require.Error(t, s.Put(context.Background(), "k", 0, "", nil))
}

// отмена контекста прерывает проверку бакета, без ретраев minio-клиента
func TestNewMinioClient_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := NewMinioClient(ctx, Options{
		Endpoint: "127.0.0.1:1",
		User:     "user",
		Pass:     "secret",
		Bucket:   "images",
		Region:   "us-east-1",
	})
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}
