// Package mirror pulls remote dataset trees from an S3-compatible
// bucket into local root directories ahead of discovery.
//
// The pipeline core only reads the local filesystem; mirror is the
// collaborator that satisfies the "dataset not yet downloaded" case by
// materializing a bucket prefix on disk. It supports AWS S3, MinIO,
// LocalStack, and other S3-compatible object stores.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// API defines the subset of the S3 client interface used by the mirror.
// This enables testing with mock implementations.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config holds configuration for a Mirror.
type Config struct {
	// Bucket is the S3 bucket name. Required.
	Bucket string

	// Prefix is an optional key prefix for all operations.
	// If set, a trailing slash is added if missing.
	Prefix string
}

// Mirror downloads objects under a bucket prefix into a local directory.
type Mirror struct {
	client API
	bucket string
	prefix string
	log    zerolog.Logger
}

// New creates a Mirror with the given client and configuration.
//
// The client must be pre-configured with credentials, region, and
// endpoint; use NewClient for that.
func New(client API, cfg Config, log zerolog.Logger) (*Mirror, error) {
	if client == nil {
		return nil, errors.New("mirror: client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("mirror: bucket is required")
	}

	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Mirror{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		log:    log,
	}, nil
}

// Pull lists every object under the configured prefix and downloads it
// beneath dest, preserving relative paths. Objects already present
// locally are skipped, so interrupted pulls resume. Returns the number
// of objects downloaded.
func (m *Mirror) Pull(ctx context.Context, dest string) (int, error) {
	keys, err := m.list(ctx)
	if err != nil {
		return 0, err
	}

	m.log.Info().Str("bucket", m.bucket).Str("prefix", m.prefix).
		Int("objects", len(keys)).Msg("pulling dataset")

	downloaded := 0
	for _, key := range keys {
		local, err := localPath(dest, key)
		if err != nil {
			m.log.Warn().Str("key", key).Msg("skipping object with unsafe key")
			continue
		}

		if _, err := os.Stat(local); err == nil {
			m.log.Debug().Str("key", key).Msg("already present, skipping")
			continue
		}

		if err := m.download(ctx, key, local); err != nil {
			return downloaded, fmt.Errorf("mirror: download %s: %w", key, err)
		}
		downloaded++
	}

	m.log.Info().Int("downloaded", downloaded).Str("dest", dest).Msg("pull complete")
	return downloaded, nil
}

// list returns all keys under the prefix, relative to it. Pagination is
// handled automatically.
func (m *Mirror) list(ctx context.Context) ([]string, error) {
	var keys []string
	var continuationToken *string

	for {
		out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.bucket),
			Prefix:            aws.String(m.prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("mirror: list objects: %w", err)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			rel := strings.TrimPrefix(*obj.Key, m.prefix)
			if rel == "" || strings.HasSuffix(rel, "/") {
				continue
			}
			keys = append(keys, rel)
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuationToken = out.NextContinuationToken
	}

	return keys, nil
}

func (m *Mirror) download(ctx context.Context, key, local string) error {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.prefix + key),
	})
	if err != nil {
		if isNotFound(err) {
			// Listed but gone by the time we fetched it; treat as skipped.
			m.log.Warn().Str("key", key).Msg("object vanished between list and get")
			return nil
		}
		return err
	}
	defer func() { _ = out.Body.Close() }()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(local, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = io.Copy(f, out.Body)
	return err
}

// localPath resolves a relative object key beneath dest, rejecting keys
// that would escape it.
func localPath(dest, key string) (string, error) {
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", errors.New("mirror: invalid object key")
	}
	return filepath.Join(dest, filepath.FromSlash(cleaned)), nil
}

// isNotFound checks if an error indicates the object was not found.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}
	return false
}

// -----------------------------------------------------------------------------
// Mock S3 client for testing
// -----------------------------------------------------------------------------

// MockClient is a test double for API backed by an in-memory object map.
type MockClient struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMockClient creates an empty mock S3 client.
func NewMockClient() *MockClient {
	return &MockClient{objects: make(map[string][]byte)}
}

// Put seeds an object into the mock bucket.
func (m *MockClient) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

// GetObject implements API.GetObject for testing.
func (m *MockClient) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)

	m.mu.RLock()
	data, exists := m.objects[key]
	m.mu.RUnlock()

	if !exists {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

// ListObjectsV2 implements API.ListObjectsV2 for testing. Pagination is
// not simulated; all matching keys are returned in one page.
func (m *MockClient) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	prefix := aws.ToString(params.Prefix)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var contents []types.Object
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			contents = append(contents, types.Object{
				Key:  aws.String(key),
				Size: aws.Int64(int64(len(data))),
			})
		}
	}

	return &s3.ListObjectsV2Output{
		Contents:    contents,
		IsTruncated: aws.Bool(false),
	}, nil
}
