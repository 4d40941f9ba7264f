package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/richxcame/cyberguard/pkg/logger"
	"go.uber.org/zap"
)

// S3Storage implements Storage for AWS S3 and S3-compatible stores
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
}

var _ Storage = (*S3Storage)(nil)

// NewS3Storage creates a new S3 storage instance
func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	// Use explicit credentials if provided
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", cfg.Endpoint, cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}, nil
}

// Upload uploads an object to S3
func (s *S3Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPrivate,
		// Evidence is encrypted at rest and never served from a shared cache
		ServerSideEncryption: types.ServerSideEncryptionAes256,
		CacheControl:         aws.String("private, no-store"),
	})
	if err != nil {
		logger.WithContext(ctx).Error("evidence upload failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	logger.WithContext(ctx).Debug("evidence uploaded", zap.String("key", key), zap.Int64("size", size))

	return &UploadResult{
		Key:        key,
		URL:        s.GetURL(key),
		Size:       size,
		MimeType:   contentType,
		UploadedAt: time.Now(),
	}, nil
}

// GetURL returns the public URL for an object
func (s *S3Storage) GetURL(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

// GetPresignedDownloadURL signs a GET that downloads the object as an
// attachment named after the last key segment.
func (s *S3Storage) GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (*PresignedURLResult, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(key))),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	return &PresignedURLResult{
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: time.Now().Add(expiresIn),
	}, nil
}

// Exists checks if an object exists in S3
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}
