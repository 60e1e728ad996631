// Package r2client uploads zstd-compressed JSON objects to a Cloudflare R2
// bucket through the S3-compatible API.
package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/klauspost/compress/zstd"
)

// ContentType labels objects written by PutJSON.
const ContentType = "application/zstd"

var (
	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("r2client: bucket not found")
	// ErrAccessDenied is returned when the credentials cannot reach the bucket.
	ErrAccessDenied = errors.New("r2client: access denied")
)

// Config holds the bucket and credentials.
type Config struct {
	Endpoint    string // e.g. https://<account>.r2.cloudflarestorage.com
	AccessKeyID string
	SecretKey   string
	BucketName  string
}

func (c Config) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"endpoint":      c.Endpoint,
		"access key id": c.AccessKeyID,
		"secret key":    c.SecretKey,
		"bucket":        c.BucketName,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("r2client: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Client writes objects into one bucket.
type Client struct {
	s3     *s3.Client
	bucket string
}

// EndpointForAccount returns the S3 endpoint of a Cloudflare account.
func EndpointForAccount(accountID string) string {
	return "https://" + accountID + ".r2.cloudflarestorage.com"
}

// New builds a client from static credentials. R2 ignores the region and
// needs path-style addressing.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(creds),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2client: load aws config: %w", err)
	}

	return &Client{
		s3: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}),
		bucket: cfg.BucketName,
	}, nil
}

// PutJSON stores v at key as compressed JSON and returns the object ETag.
// An existing object is replaced.
func (c *Client) PutJSON(ctx context.Context, key string, v any) (string, error) {
	data, err := CompressJSON(v)
	if err != nil {
		return "", fmt.Errorf("r2client: put %q: %w", key, err)
	}

	out, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("r2client: put %q: %w", key, classify(err))
	}
	return strings.Trim(aws.ToString(out.ETag), `"`), nil
}

// Ping checks that the bucket exists and the credentials can reach it.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("r2client: head bucket %q: %w", c.bucket, classify(err))
	}
	return nil
}

// classify maps well-known S3 failures onto package errors, keeping the
// original error in the chain.
func classify(err error) error {
	var notFound *types.NotFound
	var noBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noBucket) {
		return errors.Join(ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NotFound":
			return errors.Join(ErrBucketNotFound, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.Join(ErrAccessDenied, err)
		}
	}
	return err
}

// CompressJSON returns the zstd-compressed JSON encoding of v.
func CompressJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// DecompressJSON decodes a zstd-compressed JSON stream into v.
func DecompressJSON(r io.Reader, v any) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	if err := json.NewDecoder(dec).Decode(v); err != nil {
		return fmt.Errorf("decode compressed json: %w", err)
	}
	return nil
}
