// Package storage keeps rendered receipt documents so they can be reprinted.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	infraconfig "github.com/mosesmbadi/easymed-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRegion     = "us-east-1"
	defaultPresignTTL = 15 * time.Minute
)

// S3ReceiptStore stores receipts in any S3-compatible bucket (AWS S3, MinIO, ...)
// and hands out presigned download URLs.
type S3ReceiptStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	prefix        string
	presignTTL    time.Duration
	logger        *zap.Logger
}

// S3Option configures an S3ReceiptStore
type S3Option func(*S3ReceiptStore)

// WithLogger sets the store logger
func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3ReceiptStore) {
		s.logger = logger
	}
}

// NewS3ReceiptStore builds a store from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain.
func NewS3ReceiptStore(ctx context.Context, cfg infraconfig.StorageConfig, opts ...S3Option) (*S3ReceiptStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	store := &S3ReceiptStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		presignTTL:    cfg.PresignTTL,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.presignTTL <= 0 {
		store.presignTTL = defaultPresignTTL
	}
	return store, nil
}

func (s *S3ReceiptStore) key(receiptID int64) string {
	key := fmt.Sprintf("receipts/%d.pdf", receiptID)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

// Put uploads the document and returns a presigned download URL.
func (s *S3ReceiptStore) Put(ctx context.Context, receiptID int64, contentType string, body io.Reader, size int64) (string, error) {
	// The SDK needs a seekable body to compute payload checksums.
	seeker, ok := body.(io.ReadSeeker)
	if !ok {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("failed to read receipt %d: %w", receiptID, err)
		}
		seeker = bytes.NewReader(raw)
		size = int64(len(raw))
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(receiptID)),
		Body:        seeker,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload receipt %d: %w", receiptID, err)
	}

	s.logger.Debug("Receipt stored",
		zap.Int64("receipt_id", receiptID),
		zap.String("key", s.key(receiptID)),
	)
	return s.URL(ctx, receiptID)
}

// Get downloads the document. A missing object yields billing.ErrReceiptNotStored.
func (s *S3ReceiptStore) Get(ctx context.Context, receiptID int64) (*billing.ReceiptDocument, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(receiptID)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, billing.ErrReceiptNotStored
		}
		return nil, fmt.Errorf("failed to download receipt %d: %w", receiptID, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt %d: %w", receiptID, err)
	}

	contentType := "application/pdf"
	if out.ContentType != nil && *out.ContentType != "" {
		contentType = *out.ContentType
	}
	url, err := s.URL(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	return &billing.ReceiptDocument{
		ReceiptID:   receiptID,
		ContentType: contentType,
		Body:        body,
		URL:         url,
	}, nil
}

// URL returns a presigned GET URL valid for the configured TTL.
func (s *S3ReceiptStore) URL(ctx context.Context, receiptID int64) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(receiptID)),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign receipt %d: %w", receiptID, err)
	}
	return req.URL, nil
}

// Bucket returns the bucket name
func (s *S3ReceiptStore) Bucket() string {
	return s.bucket
}

var _ billing.ReceiptStore = (*S3ReceiptStore)(nil)
