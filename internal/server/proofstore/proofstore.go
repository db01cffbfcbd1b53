// Package proofstore archives proof photos in S3-compatible object storage
// and hands back presigned links for later review.
package proofstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	sc "github.com/momentum-ia/momentum/internal/server/config"

	"github.com/momentum-ia/momentum/internal/logging"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Archive stores one proof image and returns its storage key plus a
// presigned URL for review.
type Archive interface {
	Store(ctx context.Context, imageB64 string) (string, string, error)
}

// S3Archive implements Archive against MinIO or any S3-compatible endpoint.
type S3Archive struct {
	config *sc.Config
	logger logging.Logger
}

func NewS3Archive(config *sc.Config, logger logging.Logger) *S3Archive {
	return &S3Archive{config: config, logger: logger.With("module", "proofstore")}
}

// GetRandomStorageKey generates a date-partitioned object key.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("proofs/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (a *S3Archive) getClient() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(a.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3RootUser,
			a.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Store decodes the base64 payload, uploads it under a fresh key and returns
// the key together with a presigned GET URL valid for seven days. Transient
// upload failures are retried with exponential backoff.
func (a *S3Archive) Store(ctx context.Context, imageB64 string) (string, string, error) {
	img, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return "", "", fmt.Errorf("image decode error: %w", err)
	}

	client, err := a.getClient()
	if err != nil {
		return "", "", err
	}

	bucket := a.config.S3Bucket
	key := GetRandomStorageKey()
	contentType := "image/jpeg"

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := putObject(client, ctx, &s3.PutObjectInput{
			Bucket:      &bucket,
			Key:         &key,
			Body:        bytes.NewReader(img),
			ContentType: &contentType,
		})
		if err != nil {
			a.logger.Warn(ctx, "proof upload attempt failed", "key", key, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("proof upload error: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(7*24*time.Hour))
	if err != nil {
		return "", "", fmt.Errorf("presign error: %w", err)
	}

	a.logger.Debug(ctx, "proof archived", "key", key)

	return key, req.URL, nil
}
