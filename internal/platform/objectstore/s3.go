package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// s3Archive targets AWS S3 or an S3-compatible endpoint such as MinIO.
type s3Archive struct {
	log    *logger.Logger
	client *s3.Client
	cfg    Config
}

// S3Option adjusts the loaded AWS config, mostly for tests.
type S3Option func(*[]func(*config.LoadOptions) error)

// WithStaticCredentials skips the default credentials chain.
func WithStaticCredentials(key, secret string) S3Option {
	return func(opts *[]func(*config.LoadOptions) error) {
		*opts = append(*opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}
}

func NewS3(ctx context.Context, log *logger.Logger, cfg Config, extra ...S3Option) (Archive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing env var ARCHIVE_BUCKET")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	for _, o := range extra {
		o(&loadOpts)
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	l := log.With("archive", "S3")
	l.Info("Object archive initialized", "backend", BackendS3, "bucket", cfg.Bucket, "endpoint", cfg.Endpoint)
	return &s3Archive{log: l, client: client, cfg: cfg}, nil
}

func (s *s3Archive) Backend() Backend { return BackendS3 }

func (s *s3Archive) Put(ctx context.Context, key, contentType string, body []byte) error {
	key = joinKey(s.cfg.Prefix, key)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	s.log.Debug("archived object", "key", key, "size", len(body))
	return nil
}

func (s *s3Archive) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	key = joinKey(s.cfg.Prefix, key)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.cfg.Bucket), Key: aws.String(key)})
	if err != nil {
		return nil, s3Error("head", key, err)
	}
	return &ObjectInfo{
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		Modified:    aws.ToTime(out.LastModified),
	}, nil
}

func (s *s3Archive) Get(ctx context.Context, key string) (*Object, error) {
	key = joinKey(s.cfg.Prefix, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.cfg.Bucket), Key: aws.String(key)})
	if err != nil {
		return nil, s3Error("get", key, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	return &Object{
		ObjectInfo: ObjectInfo{
			Key:         key,
			ContentType: aws.ToString(out.ContentType),
			Size:        int64(len(body)),
			Modified:    aws.ToTime(out.LastModified),
		},
		Body: body,
	}, nil
}

// s3Error folds NoSuchKey and bare 404s from HEAD into ErrNotFound.
func s3Error(verb, key string, err error) error {
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("s3 %s %s: %w", verb, key, err)
}
