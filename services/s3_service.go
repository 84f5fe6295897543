package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/seed-sell/seedsell-api/config"
)

// ImageTransform describes on-the-fly resize parameters applied by the image
// CDN in front of the bucket. Zero values are omitted from the URL.
type ImageTransform struct {
	Width  int
	Height int
	Resize string // "cover", "contain" or "fill"
}

// S3Interface defines the interface for S3 operations
type S3Interface interface {
	UploadFile(key string, fileHeader *multipart.FileHeader) error
	PublicURL(key string, transform *ImageTransform) string
	DeleteFile(key string) error
}

// S3Service handles all S3-related operations
type S3Service struct {
	client *s3.Client
	bucket string
	region string
}

var s3ServiceInstance S3Interface

// InitS3Service initializes the S3 service with AWS credentials
func InitS3Service() (S3Interface, error) {
	cfg := appConfig.GetConfig()

	// Load AWS configuration with explicit options
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)

	s3ServiceInstance = &S3Service{
		client: client,
		bucket: cfg.AWSS3Bucket,
		region: cfg.AWSRegion,
	}

	return s3ServiceInstance, nil
}

// GetS3Service returns the initialized S3 service instance
func GetS3Service() S3Interface {
	return s3ServiceInstance
}

// SetS3Service sets the S3 service instance (primarily for testing)
func SetS3Service(service S3Interface) {
	s3ServiceInstance = service
}

// UploadFile uploads a file to S3 under the given key
func (s *S3Service) UploadFile(key string, fileHeader *multipart.FileHeader) error {
	// Open the uploaded file
	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	// Read file content
	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Determine content type from the file extension
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileHeader.Filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Upload to S3; objects under public/ are readable through the CDN
	_, err = s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

// PublicURL returns the public URL for an object, with optional resize
// parameters for the image CDN appended as query values.
func (s *S3Service) PublicURL(key string, transform *ImageTransform) string {
	if key == "" {
		return ""
	}

	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	if transform == nil {
		return base
	}

	params := url.Values{}
	if transform.Width > 0 {
		params.Set("width", fmt.Sprintf("%d", transform.Width))
	}
	if transform.Height > 0 {
		params.Set("height", fmt.Sprintf("%d", transform.Height))
	}
	if transform.Resize != "" {
		params.Set("resize", transform.Resize)
	}
	if len(params) == 0 {
		return base
	}

	return base + "?" + params.Encode()
}

// DeleteFile deletes a file from S3
func (s *S3Service) DeleteFile(key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}
