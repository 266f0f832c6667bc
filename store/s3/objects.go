package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/pubgate/pubgate/store"
)

// Open returns a stream of the object's bytes.
func (a *Adapter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := a.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	a.logger.Debug("Object opened from S3",
		zap.String("bucket", a.bucket),
		zap.String("key", key))

	return result.Body, nil
}

// Put stores an object under key.
func (a *Adapter) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	putInput := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		putInput.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObjectWithContext(ctx, putInput); err != nil {
		return fmt.Errorf("failed to put object to S3: %w", err)
	}

	a.logger.Debug("Object stored in S3",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.Int("size", len(data)))

	return nil
}

// Head returns the object's size and last-modified time.
func (a *Adapter) Head(ctx context.Context, key string) (*store.ObjectInfo, error) {
	result, err := a.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to head object in S3: %w", err)
	}

	info := &store.ObjectInfo{Key: key}
	if result.ContentLength != nil {
		info.Size = *result.ContentLength
	}
	if result.LastModified != nil {
		info.LastModified = *result.LastModified
	}

	return info, nil
}
