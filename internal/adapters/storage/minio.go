// Package storage holds the MinIO adapter behind the voice-note audio
// store. Recordings never pass through the API process; clients upload and
// download against presigned URLs.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"finroots_crm_backend/platform/apperr"
	"finroots_crm_backend/platform/config"
)

// PresignedURLTTL is the expiration for issued upload/download URLs.
const PresignedURLTTL = 15 * time.Minute

// AudioStore issues presigned URLs against the voice-notes bucket.
type AudioStore struct {
	client *minio.Client
	bucket string
}

// NewAudioStore creates the MinIO-backed audio store.
func NewAudioStore(cfg config.MinIOConfig) (*AudioStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &AudioStore{
		client: client,
		bucket: cfg.GetMinioBucketVoiceNotes(),
	}, nil
}

// EnsureBucketExists creates the voice-notes bucket if it doesn't exist.
func (s *AudioStore) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// PresignedPut issues an upload URL for the given object key.
func (s *AudioStore) PresignedPut(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, PresignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}
	return u.String(), nil
}

// PresignedGet issues a download URL for the given object key.
func (s *AudioStore) PresignedGet(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, PresignedURLTTL, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return u.String(), nil
}

// Delete removes a recording from the bucket.
func (s *AudioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// DisabledAudioStore stands in when MinIO is not configured. URL requests
// fail with a typed error; the rest of the notes pipeline keeps working.
type DisabledAudioStore struct{}

func (DisabledAudioStore) PresignedPut(ctx context.Context, key string) (string, error) {
	return "", apperr.New(apperr.KindInternal, "Audio storage is not configured")
}

func (DisabledAudioStore) PresignedGet(ctx context.Context, key string) (string, error) {
	return "", apperr.New(apperr.KindInternal, "Audio storage is not configured")
}
