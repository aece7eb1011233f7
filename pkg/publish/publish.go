// Package publish uploads exported calendars to S3-compatible object storage
// (AWS S3, MinIO) so they can be subscribed to from a public URL.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultRegion is the AWS region closest to Verona.
const DefaultRegion = "eu-south-1"

const calendarContentType = "text/calendar; charset=utf-8"

// Config holds the bucket and connection settings.
type Config struct {
	Bucket          string
	Region          string // default DefaultRegion
	Endpoint        string // optional; set for MinIO or other S3-compatible stores
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
	HTTPClient      *http.Client // optional
}

// Environment variables read by ConfigFromEnv:
//   ORARICTL_S3_BUCKET, ORARICTL_S3_REGION, ORARICTL_S3_ENDPOINT,
//   ORARICTL_S3_PATH_STYLE=true|false
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (default chain)

// ConfigFromEnv builds a Config from the process environment. bucket, when
// not empty, overrides ORARICTL_S3_BUCKET.
func ConfigFromEnv(bucket string) Config {
	if bucket == "" {
		bucket = os.Getenv("ORARICTL_S3_BUCKET")
	}
	return Config{
		Bucket:    bucket,
		Region:    os.Getenv("ORARICTL_S3_REGION"),
		Endpoint:  os.Getenv("ORARICTL_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("ORARICTL_S3_PATH_STYLE"), "true"),
	}
}

// putObjectAPI is the part of *s3.Client the publisher uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher writes calendars into a single bucket.
type Publisher struct {
	client putObjectAPI
	bucket string
}

// New creates a Publisher from cfg.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
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
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &Publisher{client: client, bucket: cfg.Bucket}, nil
}

// PutCalendar uploads an ICS document under key, replacing any previous version.
func (p *Publisher) PutCalendar(ctx context.Context, key string, body []byte) error {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return fmt.Errorf("object key required")
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(calendarContentType),
		CacheControl:  aws.String("max-age=900"),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}

// Bucket returns the target bucket name.
func (p *Publisher) Bucket() string {
	return p.bucket
}
