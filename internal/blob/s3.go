package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures an S3-compatible store (AWS S3, Cloudflare R2, MinIO).
type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
	// PublicBaseURL is prepended to object keys in returned URLs.
	PublicBaseURL string
	PathStyle     bool
	// AccessKey and SecretKey override the default credential chain when both are set.
	AccessKey string
	SecretKey string
}

type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads blobs to a bucket.
type S3 struct {
	client  putter
	bucket  string
	prefix  string
	baseURL string
}

// NewS3 loads the AWS configuration and returns a bucket-backed store.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return newS3(client, opts, cfg.Region), nil
}

func newS3(client putter, opts S3Options, region string) *S3 {
	baseURL := strings.TrimSpace(opts.PublicBaseURL)
	if baseURL == "" {
		switch {
		case opts.Endpoint != "":
			baseURL = joinURL(opts.Endpoint, opts.Bucket)
		case region != "":
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, region)
		default:
			baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", opts.Bucket)
		}
	}

	return &S3{
		client:  client,
		bucket:  opts.Bucket,
		prefix:  opts.Prefix,
		baseURL: baseURL,
	}
}

// Store uploads data under a random key and returns its URL.
func (s *S3) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	key := newKey(s.prefix, contentType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, key, err)
	}

	return joinURL(s.baseURL, key), nil
}
