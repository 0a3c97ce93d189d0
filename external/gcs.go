package external

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSConnection reads state dumps from a Google Cloud Storage bucket.
type GCSConnection struct {
	client *storage.Client
	bucket string
}

// NewGCSConnection wraps an already-configured GCS client.
func NewGCSConnection(client *storage.Client, bucket string) *GCSConnection {
	return &GCSConnection{client: client, bucket: bucket}
}

func (c *GCSConnection) GetFile(ctx context.Context, key string) ([]byte, error) {
	r, err := c.client.Bucket(c.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrNotFound, c.bucket, key)
		}
		return nil, fmt.Errorf("external: gcs open %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("external: gcs read %s: %w", key, err)
	}
	return data, nil
}
