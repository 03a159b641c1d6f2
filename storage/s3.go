package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clickshare/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const objectPrefix = "profiles/"

type objectPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	loadDefaultConfig = awsconfig.LoadDefaultConfig
	newPresigner      = func(cfg aws.Config, storage config.StorageConfig) objectPresigner {
		client := s3.NewFromConfig(cfg, func(o *s3.Options) {
			if storage.Endpoint != "" {
				o.BaseEndpoint = aws.String(storage.Endpoint)
			}
			o.UsePathStyle = storage.UsePathStyle
		})
		return s3.NewPresignClient(client)
	}
)

// S3Storage hands out presigned PUT URLs into a bucket. The storage id is the
// object key.
type S3Storage struct {
	presigner     objectPresigner
	bucket        string
	region        string
	publicBaseURL string
	ttl           time.Duration
}

func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage requires a bucket")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := loadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	ttl := cfg.UploadTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	region := cfg.Region
	if region == "" {
		region = awsCfg.Region
	}
	return &S3Storage{
		presigner:     newPresigner(awsCfg, cfg),
		bucket:        cfg.Bucket,
		region:        region,
		publicBaseURL: cfg.PublicBaseURL,
		ttl:           ttl,
	}, nil
}

func (s *S3Storage) GenerateUploadURL(ctx context.Context) (UploadTarget, error) {
	key := objectPrefix + newStorageID()
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return UploadTarget{}, fmt.Errorf("presign upload: %w", err)
	}
	return UploadTarget{UploadURL: req.URL, StorageID: key}, nil
}

func (s *S3Storage) Upload(ctx context.Context, target UploadTarget, data []byte, contentType string) error {
	return putObject(ctx, target.UploadURL, data, contentType)
}

func (s *S3Storage) PublicURL(storageID string) string {
	if storageID == "" || IsAbsoluteURL(storageID) {
		return storageID
	}
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + strings.TrimLeft(storageID, "/")
	}
	if s.region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, storageID)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, storageID)
}
