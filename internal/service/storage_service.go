package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	config "crosspost/configs"
)

var ErrUnsupportedFileType = errors.New("only image uploads are supported")

// StorageService uploads post media to an S3-compatible bucket (MinIO in
// development) and returns the public URL posts reference.
type StorageService struct {
	cfg config.Config
}

func NewStorageService(cfg config.Config) *StorageService {
	return &StorageService{cfg: cfg}
}

func (s *StorageService) s3Client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.Storage.AccessKey, s.cfg.Storage.SecretKey, "")),
		awsconfig.WithRegion("us-east-1"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.Storage.Endpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *StorageService) Upload(ctx context.Context, data []byte) (string, error) {
	if !filetype.IsImage(data) {
		return "", ErrUnsupportedFileType
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s.%s", id, kind.Extension)

	client, err := s.s3Client(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Storage.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(kind.MIME.Value),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s", s.cfg.Storage.PublicURL, s.cfg.Storage.Bucket, key), nil
}
