// Package appconfig reads env-based settings of the API once at start-up
package appconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wb-go/wbf/config"
)

const (
	BackendMinio = "minio"
	BackendS3    = "s3"
)

type Settings struct {
	AppPort        string
	GinMode        string
	LogLevel       string
	PostgresDSN    string
	MigrationsPath string
	KafkaBroker    string
	KafkaTopic     string
	MaxUploadBytes int64
	Storage        StorageSettings
}

type StorageSettings struct {
	Backend       string
	Bucket        string
	PublicBaseURL string

	MinioEndpoint string
	MinioUser     string
	MinioPass     string
	MinioUseSSL   bool

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

// Getter - то, что нужно от wbf/config
type Getter interface {
	GetString(key string) string
}

var _ Getter = (*config.Config)(nil)

func LoadSettings(cfg Getter) (*Settings, error) {
	s := &Settings{
		AppPort:        withDefault(cfg.GetString("APP_PORT"), "8080"),
		GinMode:        withDefault(cfg.GetString("GIN_MODE"), "release"),
		LogLevel:       withDefault(cfg.GetString("LOG_LEVEL"), "info"),
		PostgresDSN:    cfg.GetString("POSTGRES_DSN"),
		MigrationsPath: withDefault(cfg.GetString("MIGRATIONS_PATH"), "./migrations"),
		KafkaBroker:    cfg.GetString("KAFKA_BROKER"),
		KafkaTopic:     withDefault(cfg.GetString("KAFKA_TOPIC"), "image-tasks"),
		Storage: StorageSettings{
			Backend:       strings.ToLower(withDefault(cfg.GetString("STORAGE_BACKEND"), BackendMinio)),
			Bucket:        cfg.GetString("BUCKET_NAME"),
			PublicBaseURL: cfg.GetString("PUBLIC_BASE_URL"),
			MinioEndpoint: withDefault(cfg.GetString("MINIO_ENDPOINT"), "minio:9000"),
			MinioUser:     cfg.GetString("MINIO_USER"),
			MinioPass:     cfg.GetString("MINIO_PASS"),
			S3Endpoint:    cfg.GetString("S3_ENDPOINT"),
			S3Region:      cfg.GetString("S3_REGION"),
			S3AccessKey:   cfg.GetString("S3_ACCESS_KEY"),
			S3SecretKey:   cfg.GetString("S3_SECRET_KEY"),
		},
	}

	if raw := cfg.GetString("MINIO_USE_SSL"); raw != "" {
		useSSL, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("MINIO_USE_SSL must be a boolean: %w", err)
		}
		s.Storage.MinioUseSSL = useSSL
	}

	maxMB := int64(128)
	if raw := cfg.GetString("MAX_UPLOAD_MB"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("MAX_UPLOAD_MB must be a positive integer, got %q", raw)
		}
		maxMB = v
	}
	s.MaxUploadBytes = maxMB << 20

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}
	if s.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	switch s.Storage.Backend {
	case BackendMinio, BackendS3:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendMinio, BackendS3, s.Storage.Backend)
	}
	if s.Storage.Backend == BackendS3 && s.Storage.Bucket == "" {
		return fmt.Errorf("BUCKET_NAME is required for s3 storage")
	}
	return nil
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
