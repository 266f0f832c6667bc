package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/pubgate/pubgate/store"
)

// List returns one directory level under prefix: the immediate common
// prefixes and the objects directly below it. Results are paginated
// internally until the listing is complete.
func (a *Adapter) List(ctx context.Context, prefix string) (*store.Listing, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(a.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}

	listing := &store.Listing{}

	for {
		result, err := a.client.ListObjectsV2WithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in S3: %w", err)
		}

		for _, commonPrefix := range result.CommonPrefixes {
			if commonPrefix.Prefix == nil {
				continue
			}
			listing.CommonPrefixes = append(listing.CommonPrefixes, *commonPrefix.Prefix)
		}

		for _, object := range result.Contents {
			if object.Key == nil {
				continue
			}
			// Skip directory marker objects.
			if strings.HasSuffix(*object.Key, "/") {
				continue
			}
			info := store.ObjectInfo{Key: *object.Key}
			if object.Size != nil {
				info.Size = *object.Size
			}
			if object.LastModified != nil {
				info.LastModified = *object.LastModified
			}
			listing.Objects = append(listing.Objects, info)
		}

		if result.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = result.NextContinuationToken
	}

	return listing, nil
}

// ListAll returns every object under prefix, recursively.
func (a *Adapter) ListAll(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	}

	var objects []store.ObjectInfo

	for {
		result, err := a.client.ListObjectsV2WithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in S3: %w", err)
		}

		for _, object := range result.Contents {
			if object.Key == nil || strings.HasSuffix(*object.Key, "/") {
				continue
			}
			info := store.ObjectInfo{Key: *object.Key}
			if object.Size != nil {
				info.Size = *object.Size
			}
			if object.LastModified != nil {
				info.LastModified = *object.LastModified
			}
			objects = append(objects, info)
		}

		if result.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = result.NextContinuationToken
	}

	return objects, nil
}
