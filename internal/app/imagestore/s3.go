package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/FACorreiaa/go-secondhand-market/app/observability/metrics"
	appConfig "github.com/FACorreiaa/go-secondhand-market/config"
	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

var _ Store = (*S3Store)(nil)

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store implements Store on top of an S3-compatible bucket.
type S3Store struct {
	client        s3API
	bucket        string
	publicBaseURL string
	logger        *slog.Logger
}

// NewS3Store builds the S3 client from the application config. A non-empty
// endpoint points the client at an S3-compatible service (e.g. MinIO).
func NewS3Store(ctx context.Context, cfg *appConfig.Config, logger *slog.Logger) (*S3Store, error) {
	is := cfg.ImageStore

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(is.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			is.AccessKey,
			is.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load image store credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if is.Endpoint != "" {
			o.BaseEndpoint = aws.String(is.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := strings.TrimSuffix(is.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", is.Bucket, is.Region)
	}

	return &S3Store{
		client:        client,
		bucket:        is.Bucket,
		publicBaseURL: baseURL,
		logger:        logger,
	}, nil
}

// Upload stores the image bytes under folder/name and returns its descriptor.
func (s *S3Store) Upload(ctx context.Context, folder, name string, img *types.ImageUpload) (*types.ImageDescriptor, error) {
	key := folder + "/" + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		metrics.Get().ImageUploadErrorsTotal.Add(ctx, 1)
		s.logger.ErrorContext(ctx, "Image upload failed",
			slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("%w: uploading %s: %v", types.ErrUpstream, key, err)
	}

	metrics.Get().ImageUploadsTotal.Add(ctx, 1)
	return &types.ImageDescriptor{
		PublicID:    key,
		SecureURL:   s.publicBaseURL + "/" + key,
		ContentType: img.ContentType,
		Bytes:       int64(len(img.Data)),
	}, nil
}

// DeleteByPrefix lists and removes every object under prefix, paging through
// the listing until exhausted.
func (s *S3Store) DeleteByPrefix(ctx context.Context, prefix string) error {
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return fmt.Errorf("%w: listing %s: %v", types.ErrUpstream, prefix, err)
		}

		if len(out.Contents) > 0 {
			objects := make([]s3types.ObjectIdentifier, 0, len(out.Contents))
			for _, obj := range out.Contents {
				objects = append(objects, s3types.ObjectIdentifier{Key: obj.Key})
			}
			_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
			})
			if err != nil {
				metrics.Get().ImageUploadErrorsTotal.Add(ctx, 1)
				return fmt.Errorf("%w: deleting under %s: %v", types.ErrUpstream, prefix, err)
			}
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			return nil
		}
		continuation = out.NextContinuationToken
	}
}
