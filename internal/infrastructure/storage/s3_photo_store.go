// Package storage guarda las fotos de antes/después de las visitas.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
)

var _ usecase.PhotoStore = (*S3PhotoStore)(nil)

// S3API subconjunto de *s3.Client usado por el store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3PhotoStore sube las fotos a un bucket S3 y las expone por PublicBaseURL (CloudFront o endpoint del bucket).
type S3PhotoStore struct {
	client  S3API
	bucket  string
	baseURL string
}

// NewS3PhotoStore construye el store desde la configuración AWS.
func NewS3PhotoStore(cfg aws.Config, bucket, publicBaseURL string) (*S3PhotoStore, error) {
	return NewS3PhotoStoreWithClient(s3.NewFromConfig(cfg), bucket, publicBaseURL)
}

// NewS3PhotoStoreWithClient permite inyectar el cliente (tests).
func NewS3PhotoStoreWithClient(client S3API, bucket, publicBaseURL string) (*S3PhotoStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage: PHOTOS_S3_BUCKET es obligatorio con STORAGE_DRIVER=s3")
	}
	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3PhotoStore{client: client, bucket: bucket, baseURL: base}, nil
}

// Put sube el objeto y devuelve su URL pública.
func (s *S3PhotoStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	key = strings.TrimLeft(key, "/")
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}
