package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore keeps objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
}

// NewGCSStore uses application default credentials.
func NewGCSStore(ctx context.Context, bucketName string) (*GCSStore, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: client.Bucket(bucketName)}, nil
}

// Create writes the object only if it doesn't already exist.
func (s *GCSStore) Create(ctx context.Context, name string, data []byte) error {
	if _, err := CleanName(name); err != nil {
		return err
	}
	writer := s.bucket.Object(name).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			return ErrExist
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			return ErrExist
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to open GCS object %s: %w", name, err)
	}
	return r, nil
}

func (s *GCSStore) Remove(ctx context.Context, name string) error {
	if err := s.bucket.Object(name).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to delete GCS object %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
