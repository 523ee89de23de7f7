package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/Saul-Punybz/hnbrief/internal/config"
)

func TestUnconfiguredClient(t *testing.T) {
	c, err := NewClient(context.Background(), config.S3Config{Bucket: "b"})
	assert.Equal(t, nil, err)
	assert.Equal(t, false, c.Configured())

	assert.Equal(t, nil, c.StoreEvidence(context.Background(), "123", []byte("raw"), []byte("sum")))

	_, err = c.GetEvidence(context.Background(), "123")
	assert.Equal(t, true, errors.Is(err, ErrNotConfigured))
}

func TestEvidenceKeys(t *testing.T) {
	k := evidenceKeys("40123")
	assert.Equal(t, "evidence/40123/raw.txt.gz", k.raw)
	assert.Equal(t, "evidence/40123/summary.txt.gz", k.summary)
	assert.Equal(t, "evidence/40123/capture_meta.json", k.meta)
}

func TestGzipRoundTrip(t *testing.T) {
	in := []byte("Some article text. Some article text. Some article text.")
	gz, err := gzipCompress(in)
	assert.Equal(t, nil, err)

	out, err := gzipDecompress(gz)
	assert.Equal(t, nil, err)
	assert.Equal(t, in, out)
}

func TestSHA256(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", sha256sum(nil))
}
