package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// S3Store persists artifacts to an S3-compatible object store (MinIO locally,
// any S3 provider in production). Retention is delegated to bucket lifecycle
// rules rather than the local sweeper.
type S3Store struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewS3Store creates a MinIO client, ensures the bucket exists with a
// public-read policy, and returns a ready-to-use S3Store.
func NewS3Store(endpoint, accessKey, secretKey, bucket, publicBase string, useSSL bool, log zerolog.Logger) (*S3Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Info().Str("bucket", bucket).Msg("created storage bucket")
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return newS3Store(client, bucket, publicBase), nil
}

// newS3Store wires the store fields. NewS3Store performs the client and
// bucket setup and delegates here.
func newS3Store(client *minio.Client, bucket, publicBase string) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Persist puts the encoded bytes under key with an image/jpeg content type.
// PutObject is atomic on the S3 side: the object is invisible until complete.
func (s *S3Store) Persist(ctx context.Context, key string, data []byte) (*Saved, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}
	return &Saved{URL: s.publicURL(key)}, nil
}

// publicURL returns the browser-accessible URL for the given key.
func (s *S3Store) publicURL(key string) string {
	return s.publicBase + "/" + key
}

// Mode returns the backend name.
func (s *S3Store) Mode() string {
	return ModeS3
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET
// on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
