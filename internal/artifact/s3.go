package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store is the production ObjectStore backed by an S3-compatible bucket.
type S3Store struct {
	bucket   string
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
}

// S3Config is read from the environment by S3ConfigFromEnv.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for MinIO and friends
	AccessKey string
	SecretKey string
}

// S3ConfigFromEnv loads bucket settings from NADI_S3_* variables. Static
// credentials are optional; absent, the default AWS chain applies.
func S3ConfigFromEnv() (S3Config, error) {
	cfg := S3Config{
		Bucket:    os.Getenv("NADI_S3_BUCKET"),
		Region:    os.Getenv("NADI_S3_REGION"),
		Endpoint:  os.Getenv("NADI_S3_ENDPOINT"),
		AccessKey: os.Getenv("NADI_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("NADI_S3_SECRET_KEY"),
	}
	if cfg.Bucket == "" {
		return S3Config{}, fmt.Errorf("NADI_S3_BUCKET is not set")
	}
	if cfg.Region == "" {
		cfg.Region = "ap-southeast-1"
	}
	return cfg, nil
}

// NewS3Store builds the client set for one bucket.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		bucket:   cfg.Bucket,
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
	}, nil
}

// Upload writes the object, overwriting any previous bytes at the key.
func (s *S3Store) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return nil
}

// PresignGet issues a time-limited GET link for the object.
func (s *S3Store) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", key, err)
	}
	return out.URL, nil
}
