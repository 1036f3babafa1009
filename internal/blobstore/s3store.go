package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"
)

// S3Store is a Store backed by an S3-compatible object store.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store wraps an already-configured S3 client for bucket.
func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]Descriptor, error) {
	var out []Descriptor
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("blobstore: listing prefix %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, Descriptor{Bucket: s.bucket, Path: aws.ToString(obj.Key)})
		}
	}
	return out, nil
}

func (s *S3Store) Download(ctx context.Context, desc Descriptor, destFile string) error {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(desc.Bucket),
		Key:    aws.String(desc.Path),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, desc.Path)
		}
		return fmt.Errorf("blobstore: downloading %s: %w", desc.Path, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(destFile)
	if err != nil {
		return fmt.Errorf("blobstore: creating %s: %w", destFile, err)
	}
	defer f.Close()

	if _, err := f.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("blobstore: writing %s: %w", destFile, err)
	}
	return nil
}

func (s *S3Store) Copy(ctx context.Context, src Descriptor, dstPath string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dstPath),
		CopySource: aws.String(src.Bucket + "/" + src.Path),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, src.Path)
		}
		return fmt.Errorf("blobstore: copying %s to %s: %w", src.Path, dstPath, err)
	}
	return nil
}

func (s *S3Store) DeleteMany(ctx context.Context, descs []Descriptor) error {
	if len(descs) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(descs))
	for _, d := range descs {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(d.Path)})
	}
	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects},
	})
	if err != nil {
		return fmt.Errorf("blobstore: deleting %d blobs: %w", len(descs), err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
