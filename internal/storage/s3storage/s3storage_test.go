package s3storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

func newOfflineStorage(t *testing.T, opts Options) *S3ImageStorage {
	t.Helper()

	client := s3.New(s3.Options{
		Region:       "eu-west-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
		BaseEndpoint: aws.String("http://localhost:9000"),
		UsePathStyle: true,
	})

	return newStorage(client, opts)
}

func TestS3ImageStorage_SignedURL(t *testing.T) {
	s := newOfflineStorage(t, Options{Bucket: "images", Region: "eu-west-1", Endpoint: "http://localhost:9000"})

	raw, err := s.SignedURL(context.Background(), "b1/input/a.jpg", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/images/b1/input/a.jpg", u.Path)
	require.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}

func TestS3ImageStorage_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		key  string
		want string
	}{
		{
			name: "custom endpoint",
			opts: Options{Bucket: "images", Region: "eu-west-1", Endpoint: "http://localhost:9000/"},
			key:  "b1/input/a.jpg",
			want: "http://localhost:9000/images/b1/input/a.jpg",
		},
		{
			name: "aws virtual host",
			opts: Options{Bucket: "images", Region: "eu-west-1"},
			key:  "b1/input/my photo.jpg",
			want: "https://images.s3.eu-west-1.amazonaws.com/b1/input/my%20photo.jpg",
		},
		{
			name: "explicit base",
			opts: Options{Bucket: "images", PublicBaseURL: "https://cdn.example.com"},
			key:  "b1/input/a.jpg",
			want: "https://cdn.example.com/b1/input/a.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newOfflineStorage(t, tt.opts)
			require.Equal(t, tt.want, s.PublicURL(tt.key))
		})
	}
}
