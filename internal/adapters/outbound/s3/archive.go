// Package s3 archives committed answer buffers to AWS S3.
//
// Objects are written with If-None-Match so re-archiving the same key is a
// no-op rather than an overwrite of an existing object.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// s3API defines the subset of S3 operations needed by the Archive.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Compile-time check that Archive implements outbound.AnswerArchive
var _ outbound.AnswerArchive = (*Archive)(nil)

// Config holds S3 archive configuration.
type Config struct {
	// Bucket receives the archived objects.
	Bucket string
	// KeyPrefix is prepended to every object key.
	KeyPrefix string
}

// Archive implements the AnswerArchive port using the AWS SDK.
type Archive struct {
	client s3API
	config Config
	logger *slog.Logger
}

// NewArchive creates an S3 archive with optional S3 client options.
func NewArchive(cfg aws.Config, archiveConfig Config, logger *slog.Logger, optFns ...func(*s3.Options)) (*Archive, error) {
	return newArchive(s3.NewFromConfig(cfg, optFns...), archiveConfig, logger)
}

func newArchive(client s3API, config Config, logger *slog.Logger) (*Archive, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client cannot be nil")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{
		client: client,
		config: config,
		logger: logger.With("component", "s3-archive"),
	}, nil
}

// Put stores data under key unless an object already exists there.
func (a *Archive) Put(ctx context.Context, key string, data []byte) error {
	fullKey := a.config.KeyPrefix + key

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.config.Bucket),
		Key:           aws.String(fullKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "PreconditionFailed" || apiErr.ErrorCode() == "412") {
			a.logger.Debug("answer already archived", "bucket", a.config.Bucket, "key", fullKey)
			return nil
		}
		return fmt.Errorf("failed to write to S3: %w", err)
	}

	a.logger.Debug("archived answer", "bucket", a.config.Bucket, "key", fullKey, "bytes", len(data))
	return nil
}
