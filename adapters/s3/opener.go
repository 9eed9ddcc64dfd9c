package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Scheme prefixes catalog locations served from S3 or a compatible store.
const Scheme = "s3://"

// Opener reads catalog resources addressed as s3://bucket/key.
type Opener struct {
	client *s3.Client
}

// Config holds explicit construction parameters. Credentials come from the
// default AWS chain.
type Config struct {
	Region     string
	Endpoint   string // optional; MinIO and other compatible stores
	PathStyle  bool
	HTTPClient *http.Client // optional; tests inject a fake transport
}

// New creates an S3 opener from Config.
func New(ctx context.Context, cfg Config, optFns ...func(*config.LoadOptions) error) (*Opener, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := append([]func(*config.LoadOptions) error{config.WithRegion(region)}, optFns...)
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &Opener{client: client}, nil
}

// ConfigFromEnv reads AWS_REGION, S3_ENDPOINT and S3_PATH_STYLE.
func ConfigFromEnv() Config {
	return Config{
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("S3_PATH_STYLE"), "true"),
	}
}

// Open streams the object named by location. The caller closes the body.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseURI(location)
	if err != nil {
		return nil, err
	}
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s: %w", location, err)
	}
	return out.Body, nil
}

// IsURI reports whether location uses the s3:// scheme.
func IsURI(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// ParseURI splits s3://bucket/key into its parts.
func ParseURI(location string) (bucket, key string, err error) {
	if !IsURI(location) {
		return "", "", fmt.Errorf("not an s3 location: %q", location)
	}
	rest := strings.TrimPrefix(location, Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 location must be s3://bucket/key: %q", location)
	}
	return bucket, key, nil
}
