package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Service keeps pet images in one Amazon S3 (or compatible) bucket.
type S3Service struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
	bucket   string
}

func NewS3Service(client *s3.Client, bucket string) *S3Service {
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
		bucket:   bucket,
	}
}

func (s *S3Service) Put(ctx context.Context, body io.Reader, opts PutOptions) (string, error) {
	key := strings.Trim(opts.Key, "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.Size > 0 {
		input.ContentLength = aws.Int64(opts.Size)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return Ref(s.bucket, key), nil
}

func (s *S3Service) Delete(ctx context.Context, ref string) error {
	bucket, key, err := ParseRef(ref)
	if err != nil || bucket != s.bucket {
		return nil
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Service) URL(ctx context.Context, ref string, expires time.Duration) (string, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	if bucket != s.bucket {
		return "", fmt.Errorf("s3 bucket mismatch")
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Service) Owns(ref string) bool {
	bucket, _, err := ParseRef(ref)
	return err == nil && bucket == s.bucket
}

var _ Service = (*S3Service)(nil)

// Ref formats an object location as s3://bucket/key.
func Ref(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, strings.TrimPrefix(key, "/"))
}

// ParseRef splits an s3://bucket/key reference.
func ParseRef(ref string) (bucket, key string, err error) {
	if !strings.HasPrefix(ref, "s3://") {
		return "", "", fmt.Errorf("invalid s3 location")
	}
	rest := strings.TrimPrefix(ref, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid s3 location")
	}
	if len(parts) == 1 || strings.TrimPrefix(parts[1], "/") == "" {
		return "", "", fmt.Errorf("s3 key missing")
	}
	return parts[0], strings.TrimPrefix(parts[1], "/"), nil
}
