package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// keyPrefix namespaces product images inside the bucket.
const keyPrefix = "products/"

// S3Config holds the bucket settings for S3Store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS; e.g. "http://localhost:9000" for MinIO
	AccessKey string
	SecretKey string
	MaxBytes  int64
}

// objectClient is the subset of *s3.Client used by S3Store.
type objectClient interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store uploads images to an S3-compatible bucket.
type S3Store struct {
	client objectClient
	cfg    S3Config
	now    func() time.Time
}

// NewS3Store builds an S3 client from cfg. Static credentials are used when
// an access key is set; otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg), nil
}

func newS3Store(client objectClient, cfg S3Config) *S3Store {
	return &S3Store{client: client, cfg: cfg, now: time.Now}
}

// Save uploads the image and returns its public URL.
func (s *S3Store) Save(ctx context.Context, u Upload) (string, error) {
	up, err := inspect(u)
	if err != nil {
		return "", err
	}

	data, err := readLimited(up.body, s.cfg.MaxBytes)
	if err != nil {
		return "", err
	}

	key := keyPrefix + FileName(s.now(), up.ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(up.contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	return s.objectURL(key), nil
}

// Delete removes the object behind url. URLs that do not point into the
// bucket are ignored.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.objectURL(""))
	if !ok || !strings.HasPrefix(key, keyPrefix) {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// objectURL returns the path-style URL for key.
func (s *S3Store) objectURL(key string) string {
	if s.cfg.Endpoint != "" {
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
