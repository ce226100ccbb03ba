package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/entity"
)

type s3Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

func newS3Store(cfg config.Upload, logger *zap.Logger) (Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3.Region))
	}
	if cfg.S3.AccessKey != "" || cfg.S3.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	// BaseEndpoint and path-style addressing support localstack and minio.
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.PathStyle
	})

	if logger != nil {
		logger.Info("s3 blob store ready",
			zap.String("bucket", cfg.S3.Bucket),
			zap.String("endpoint", cfg.S3.Endpoint),
		)
	}
	return &s3Store{client: client, bucket: cfg.S3.Bucket, logger: logger}, nil
}

func (s *s3Store) Save(ctx context.Context, filename string, r io.Reader) (entity.FileMeta, error) {
	data, meta, err := digest(filename, r)
	if err != nil {
		return entity.FileMeta{}, err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(meta.Name),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return entity.FileMeta{}, fmt.Errorf("put object: %w", err)
	}
	return meta, nil
}
