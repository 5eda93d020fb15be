// Package media stores post images in S3-compatible object storage using
// presigned URLs, so credentials never travel with the upload itself.
package media

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/blogkeeper/internal/ids"
	"github.com/dmitrijs2005/blogkeeper/internal/netx"
)

// PresignExpiry bounds how long presigned URLs stay usable.
const PresignExpiry = 15 * time.Minute

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

	uploadToPresignedURL = netx.UploadToPresignedURL
)

// ImageStore is what the post service needs from object storage.
type ImageStore interface {
	// Put uploads data and returns the object key it was stored under.
	Put(ctx context.Context, ownerID string, data []byte, contentType string) (string, error)
	// URL returns a temporary download link for key.
	URL(ctx context.Context, key string) (string, error)
}

// S3Config carries the connection settings for the image bucket.
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

type S3Store struct {
	cfg  S3Config
	http *http.Client
	now  func() time.Time
}

var _ ImageStore = (*S3Store)(nil)

func NewS3Store(cfg S3Config, client *http.Client) *S3Store {
	return &S3Store{cfg: cfg, http: client, now: time.Now}
}

func (s *S3Store) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// ImageKey builds a storage key of the form images/<owner>/<yyyy>/<mm>/<ulid><ext>.
func ImageKey(ownerID string, contentType string, now time.Time) (string, error) {
	id, err := ids.NewULID(now)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("images/%s/%04d/%02d/%s%s", ownerID, now.Year(), int(now.Month()), id, extension(contentType)), nil
}

func extension(contentType string) string {
	switch strings.TrimPrefix(contentType, "image/") {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ""
	}
}

func (s *S3Store) Put(ctx context.Context, ownerID string, data []byte, contentType string) (string, error) {
	key, err := ImageKey(ownerID, contentType, s.now())
	if err != nil {
		return "", fmt.Errorf("image key: %w", err)
	}

	url, err := s.presignPut(ctx, key)
	if err != nil {
		return "", err
	}

	if err := uploadToPresignedURL(ctx, s.http, url, data, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", path.Base(key), err)
	}
	return key, nil
}

func (s *S3Store) presignPut(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.cfg.Bucket

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.cfg.Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
