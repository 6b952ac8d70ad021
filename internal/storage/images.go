// Package storage persists uploaded images.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/google/uuid"
)

const PublicPath = "/uploads"

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// objectName builds a collision free key that keeps a recognisable extension.
func objectName(folder string, upload types.Upload) string {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if known, ok := extensions[upload.ContentType]; ok {
		ext = known
	}

	return path.Join(folder, uuid.New().String()+ext)
}

// LocalStore writes images under a directory served at PublicPath.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}

	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) Save(_ context.Context, folder string, upload types.Upload) (string, error) {
	name := objectName(folder, upload)
	target := filepath.Join(s.Dir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, upload.Body); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}

	return PublicPath + "/" + name, nil
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct {
	client objectPutter
	bucket string
	region string
}

func NewS3Store(ctx context.Context, bucket, region string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

func (s *S3Store) Save(ctx context.Context, folder string, upload types.Upload) (string, error) {
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	key := objectName(folder, upload)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(upload.ContentType),
	})

	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
