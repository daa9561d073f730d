package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"facelink/internal/domain/port"
)

// MinioArchiver stores forwarded face crops in an S3-compatible bucket so
// operators can audit what the edge sent to the cloud.
type MinioArchiver struct {
	client *minio.Client
	bucket string
}

// Options carries the object-storage connection settings.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
}

// NewMinioArchiver connects to the object store and creates the bucket
// when it does not exist yet.
func NewMinioArchiver(ctx context.Context, opts Options) (*MinioArchiver, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", opts.Bucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region})
		if err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", opts.Bucket, err)
		}
	}

	return &MinioArchiver{client: client, bucket: opts.Bucket}, nil
}

// Archive uploads the crop under a time-sharded key.
func (a *MinioArchiver) Archive(ctx context.Context, frameID string, crop []byte) error {
	key := objectKey(frameID)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(crop), int64(len(crop)),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// objectKey shards crops by upload time to keep listing cheap.
func objectKey(frameID string) string {
	uid := fmt.Sprintf("%x", time.Now().UTC().UnixNano())
	return fmt.Sprintf("crops/%s/%s/%s.jpg", uid[:2], uid[2:4], frameID)
}

var _ port.CropArchiver = (*MinioArchiver)(nil)
