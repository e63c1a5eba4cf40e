package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Client wraps the S3 client with receipt-specific functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// UploadResult describes a stored receipt object
type UploadResult struct {
	ObjectKey string
	URL       string
	Size      int64
}

// NewClient creates a new receipt storage client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("receipt storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible providers need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Storage] Successfully initialized S3 client for bucket: %s", cfg.GetBucketName())
	return client, nil
}

// testConnection checks that the configured bucket is reachable
func (c *Client) testConnection() error {
	ctx := context.Background()
	bucketName := c.config.GetBucketName()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", bucketName, err)
	}

	return nil
}

// StoreReceipt uploads a receipt document and returns its object key and URL
func (c *Client) StoreReceipt(ctx context.Context, paymentReference, fileExtension string, body io.Reader, size int64, contentType string) (*UploadResult, error) {
	now := time.Now()
	objectKey := c.config.GetObjectKey(paymentReference, fileExtension, now.Year(), int(now.Month()))
	bucketName := c.config.GetBucketName()

	if contentType == "" {
		contentType = getContentType(fileExtension)
	}

	log.Infof("[Storage] Uploading receipt %s -> s3://%s/%s", paymentReference, bucketName, objectKey)

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload receipt %s: %w", objectKey, err)
	}

	return &UploadResult{
		ObjectKey: objectKey,
		URL:       c.ObjectURL(objectKey),
		Size:      size,
	}, nil
}

// DeleteReceipt removes a receipt object from the bucket
func (c *Client) DeleteReceipt(ctx context.Context, objectKey string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.GetBucketName()),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete receipt %s: %w", objectKey, err)
	}
	return nil
}

// ObjectURL builds the public URL for a stored object
func (c *Client) ObjectURL(objectKey string) string {
	if c.config.PublicBaseURL != "" {
		return strings.TrimRight(c.config.PublicBaseURL, "/") + "/" + objectKey
	}
	if c.config.EndpointURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.config.EndpointURL, "/"), c.config.GetBucketName(), objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.config.GetBucketName(), c.config.Region, objectKey)
}

// getContentType maps common receipt file extensions to MIME types
func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
