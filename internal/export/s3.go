package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrInvalidS3URI is returned for destinations not of the form s3://bucket[/key].
var ErrInvalidS3URI = errors.New("invalid s3 uri")

// S3API is the subset of the S3 client used for uploads.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader copies finished workbooks to S3.
type S3Uploader struct {
	client S3API
}

// NewS3Uploader creates an uploader from the shared SDK configuration.
func NewS3Uploader(awsCfg aws.Config) *S3Uploader {
	return &S3Uploader{client: s3.NewFromConfig(awsCfg)}
}

// ParseS3URI splits s3://bucket/key into bucket and key. The key may be empty.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket", ErrInvalidS3URI, uri)
	}
	return bucket, key, nil
}

// Upload puts the file at path to uri. When the key is empty or ends
// with a slash, the file's base name is appended.
func (u *S3Uploader) Upload(ctx context.Context, path, uri string) error {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		key += filepath.Base(path)
	}

	file, err := os.Open(path) // #nosec G304 -- path is the report we just wrote
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}

	log.Info().Str("bucket", bucket).Str("key", key).Msg("workbook uploaded")
	return nil
}
