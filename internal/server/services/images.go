package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/dmitrijs2005/goblog/internal/server/config"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ImageUpload is a presigned PUT for a new article image.
type ImageUpload struct {
	Key       string
	URL       string
	ExpiresIn time.Duration
}

// ImageService hands out presigned S3 URLs for article images. The presign
// client is built on first use and shared afterwards.
type ImageService struct {
	config *sc.Config

	mu     sync.Mutex
	client *s3.PresignClient
}

func NewImageService(config *sc.Config) *ImageService {
	return &ImageService{config: config}
}

// GetRandomStorageKey returns a fresh object key for an image of article id.
func GetRandomStorageKey(articleID int64) string {
	d := time.Now()
	return fmt.Sprintf("articles/%d/%d/%d/%d/%v", articleID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// IsExternalURL reports whether image is already an absolute http(s) URL
// rather than a storage key.
func IsExternalURL(image string) bool {
	return strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://")
}

// presignClient returns the shared client, building it if needed. A failed
// build is not cached, so the next request retries it.
func (s *ImageService) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}
	s.client = pc
	return pc, nil
}

func (s *ImageService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a new storage key for article id and a presigned
// PUT URL for it.
func (s *ImageService) PresignUpload(ctx context.Context, articleID int64) (*ImageUpload, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey(articleID)

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, err
	}

	return &ImageUpload{Key: key, URL: req.URL, ExpiresIn: presignExpiry}, nil
}

// URL turns a stored image value into something a browser can load.
// External URLs pass through; keys get a presigned GET; empty stays empty.
func (s *ImageService) URL(ctx context.Context, image string) (string, error) {
	if image == "" || IsExternalURL(image) {
		return image, nil
	}

	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &image,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
