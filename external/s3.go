package external

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3Connection reads state dumps from an S3 bucket.
type S3Connection struct {
	client *s3.Client
	bucket string
}

// NewS3Connection wraps an already-configured S3 client.
func NewS3Connection(client *s3.Client, bucket string) *S3Connection {
	return &S3Connection{client: client, bucket: bucket}
}

func (c *S3Connection) GetFile(ctx context.Context, key string) ([]byte, error) {
	downloader := manager.NewDownloader(c.client)
	buf := manager.NewWriteAtBuffer(nil)
	_, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var respErr *smithyhttp.ResponseError
		if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, c.bucket, key)
		}
		return nil, fmt.Errorf("external: s3 download %s: %w", key, err)
	}
	return buf.Bytes(), nil
}
