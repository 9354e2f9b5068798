package objstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configures the S3-compatible mirror for ingested media.
type Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	CustomDomain    string
	Prefix          string
	PathStyle       bool
}

// Uploader pushes media payloads to S3-compatible object storage.
type Uploader struct {
	client *s3.Client
	opts   Options
}

// New validates the options and builds an S3 client.
func New(opts Options) (*Uploader, error) {
	opts.Bucket = strings.TrimSpace(opts.Bucket)
	opts.Region = strings.TrimSpace(opts.Region)
	if opts.Bucket == "" || opts.Region == "" || opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, fmt.Errorf("incomplete s3 config: bucket/region/access_key_id/secret_access_key are required")
	}

	s3opts := s3.Options{
		Region:       opts.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		UsePathStyle: opts.PathStyle,
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid s3 endpoint %q: %w", opts.Endpoint, err)
		}
		s3opts.BaseEndpoint = aws.String(strings.TrimSuffix(endpoint, "/"))
		// Custom endpoints rarely support virtual-host bucket addressing.
		s3opts.UsePathStyle = true
	}

	return &Uploader{client: s3.New(s3opts), opts: opts}, nil
}

// Upload stores one object and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, name string, payload []byte, contentType string) (string, error) {
	key := u.objectKey(name)
	if key == "" {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %q: %w", key, err)
	}
	return u.PublicURL(key), nil
}

// PublicURL resolves the externally reachable URL for an object key.
func (u *Uploader) PublicURL(key string) string {
	if domain := strings.TrimRight(strings.TrimSpace(u.opts.CustomDomain), "/"); domain != "" {
		return domain + "/" + key
	}
	if endpoint := strings.TrimSpace(u.opts.Endpoint); endpoint != "" {
		endpoint = strings.TrimSuffix(endpoint, "/")
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		return endpoint + "/" + u.opts.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.opts.Bucket, u.opts.Region, key)
}

func (u *Uploader) objectKey(name string) string {
	name = strings.TrimSpace(strings.Trim(name, "/"))
	if name == "" {
		return ""
	}
	if prefix := strings.Trim(strings.TrimSpace(u.opts.Prefix), "/"); prefix != "" {
		return prefix + "/" + name
	}
	return name
}
