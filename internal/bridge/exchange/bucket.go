package exchange

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/pkg/log"
	"github.com/autopeer-io/efls/pkg/options"
)

var _ core.ExchangeChannel = (*Bucket)(nil)

const protobufContentType = "application/x-protobuf"

// Bucket exchanges messages through two objects of an S3 compatible bucket.
type Bucket struct {
	client      *minio.Client
	bucketName  string
	inboundKey  string
	outboundKey string
}

// NewBucket creates the S3 backed channel. No request is made until first use.
func NewBucket(opts *options.S3Options, inboundKey, outboundKey string) (*Bucket, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Bucket{
		client:      client,
		bucketName:  opts.BucketName,
		inboundKey:  inboundKey,
		outboundKey: outboundKey,
	}, nil
}

// CheckBucket creates the bucket if it does not exist yet.
func (b *Bucket) CheckBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", b.bucketName)
		if err := b.client.MakeBucket(ctx, b.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// WriteOutbound overwrites the outbound object.
func (b *Bucket) WriteOutbound(ctx context.Context, snap core.TelemetrySnapshot) error {
	payload, err := MarshalTelemetry(snap)
	if err != nil {
		return fmt.Errorf("failed to encode telemetry: %w", err)
	}
	_, err = b.client.PutObject(ctx, b.bucketName, b.outboundKey, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: protobufContentType})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
	}
	return nil
}

// ReadInbound decodes the inbound object. A missing or empty object yields a nil plan.
func (b *Bucket) ReadInbound(ctx context.Context) (*core.LandingPlan, error) {
	obj, err := b.client.GetObject(ctx, b.bucketName, b.inboundKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, b.readError(err)
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		return nil, b.readError(err)
	}
	return decodeInbound(payload)
}

func (b *Bucket) readError(err error) error {
	if isNotFound(err) {
		return nil
	}
	return fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
}

// ClearInbound removes the inbound object.
func (b *Bucket) ClearInbound(ctx context.Context) error {
	if err := b.client.RemoveObject(ctx, b.bucketName, b.inboundKey, minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
	}
	return nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return true
	}
	return false
}
