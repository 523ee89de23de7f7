// Package storage keeps acquired text and summaries in S3-compatible object
// storage.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Saul-Punybz/hnbrief/internal/config"
)

// ErrNotConfigured is returned by reads when no endpoint is set.
var ErrNotConfigured = errors.New("storage: not configured")

// Client wraps an S3-compatible object storage client. A Client without an
// endpoint accepts writes as no-ops.
type Client struct {
	s3     *s3.Client
	bucket string
}

// Evidence holds the stored artifacts of one delivered story.
type Evidence struct {
	Raw     []byte       `json:"raw,omitempty"`
	Summary []byte       `json:"summary,omitempty"`
	Meta    *CaptureMeta `json:"meta,omitempty"`
}

// CaptureMeta records when and what was captured.
type CaptureMeta struct {
	ObjectID    string    `json:"object_id"`
	CapturedAt  time.Time `json:"captured_at"`
	RawHash     string    `json:"raw_hash_sha256"`
	SummaryHash string    `json:"summary_hash_sha256"`
}

type keys struct {
	raw, summary, meta string
}

func evidenceKeys(objectID string) keys {
	prefix := "evidence/" + objectID
	return keys{
		raw:     prefix + "/raw.txt.gz",
		summary: prefix + "/summary.txt.gz",
		meta:    prefix + "/capture_meta.json",
	}
}

// NewClient creates a storage client for any S3-compatible endpoint.
func NewClient(ctx context.Context, cfg config.S3Config) (*Client, error) {
	if cfg.Endpoint == "" {
		slog.Warn("S3 endpoint not configured, evidence storage disabled")
		return &Client{bucket: cfg.Bucket}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &Client{
		s3:     client,
		bucket: cfg.Bucket,
	}, nil
}

// Configured reports whether uploads go anywhere.
func (c *Client) Configured() bool {
	return c.s3 != nil
}

// StoreEvidence uploads the acquired text, the delivered summary and a
// capture_meta.json under evidence/<objectID>/. Text artifacts are gzip'd.
func (c *Client) StoreEvidence(ctx context.Context, objectID string, raw, summary []byte) error {
	if c.s3 == nil {
		slog.Debug("evidence storage not configured, skipping upload", "object_id", objectID)
		return nil
	}

	k := evidenceKeys(objectID)
	metaJSON, err := json.MarshalIndent(CaptureMeta{
		ObjectID:    objectID,
		CapturedAt:  time.Now().UTC(),
		RawHash:     sha256sum(raw),
		SummaryHash: sha256sum(summary),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal meta: %w", err)
	}

	rawGz, err := gzipCompress(raw)
	if err != nil {
		return fmt.Errorf("storage: compress raw: %w", err)
	}
	summaryGz, err := gzipCompress(summary)
	if err != nil {
		return fmt.Errorf("storage: compress summary: %w", err)
	}

	uploads := []struct {
		key         string
		body        []byte
		contentType string
	}{
		{k.raw, rawGz, "application/gzip"},
		{k.summary, summaryGz, "application/gzip"},
		{k.meta, metaJSON, "application/json"},
	}
	for _, u := range uploads {
		_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(c.bucket),
			Key:         aws.String(u.key),
			Body:        bytes.NewReader(u.body),
			ContentType: aws.String(u.contentType),
		})
		if err != nil {
			return fmt.Errorf("storage: upload %s: %w", u.key, err)
		}
		slog.Debug("evidence uploaded", "key", u.key, "size", len(u.body))
	}

	return nil
}

// GetEvidence retrieves the artifacts stored for objectID.
func (c *Client) GetEvidence(ctx context.Context, objectID string) (*Evidence, error) {
	if c.s3 == nil {
		return nil, ErrNotConfigured
	}

	k := evidenceKeys(objectID)
	ev := &Evidence{}

	rawData, err := c.getObject(ctx, k.raw)
	if err != nil {
		return nil, err
	}
	if ev.Raw, err = gzipDecompress(rawData); err != nil {
		return nil, fmt.Errorf("storage: decompress raw: %w", err)
	}

	sumData, err := c.getObject(ctx, k.summary)
	if err != nil {
		return nil, err
	}
	if ev.Summary, err = gzipDecompress(sumData); err != nil {
		return nil, fmt.Errorf("storage: decompress summary: %w", err)
	}

	metaData, err := c.getObject(ctx, k.meta)
	if err != nil {
		return nil, err
	}
	var meta CaptureMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("storage: unmarshal meta: %w", err)
	}
	ev.Meta = &meta

	return ev, nil
}

func (c *Client) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
