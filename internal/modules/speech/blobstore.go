package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/voxstory/core/internal/config"
)

// BlobStore persists generated audio objects such as voice previews.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns a client-reachable location for a stored object.
	URL(key string) string
}

// NewBlobStore builds the configured store, or nil when previews are disabled.
func NewBlobStore(cfg config.PreviewsConfig) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "s3":
		if cfg.Bucket == "" {
			return nil, errors.New("previews: s3 backend requires a bucket")
		}
		return newS3Store(cfg), nil
	case "local":
		dir := cfg.Dir
		if dir == "" {
			dir = "previews"
		}
		return &localStore{dir: dir}, nil
	default:
		return nil, fmt.Errorf("previews: unknown backend %q", cfg.Backend)
	}
}

type s3Store struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

func newS3Store(cfg config.PreviewsConfig) *s3Store {
	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		}
	})
	return &s3Store{client: client, bucket: cfg.Bucket, endpoint: strings.TrimRight(cfg.Endpoint, "/")}
}

func (s *s3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head %s: %w", key, err)
	}
	return true, nil
}

func (s *s3Store) URL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

type localStore struct{ dir string }

func (l *localStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (l *localStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.dir, filepath.FromSlash(key)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *localStore) URL(key string) string {
	return "/" + strings.TrimPrefix(l.dir+"/"+key, "/")
}
