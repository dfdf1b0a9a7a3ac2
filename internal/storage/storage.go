// Package storage publishes rota exports to a local directory or an
// S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/config"
)

// ExportPrefix is the key prefix every published rota lives under.
const ExportPrefix = "rota/"

const CacheTTL = 5 * time.Minute

type Client struct {
	backend StorageProvider
	bucket  string

	cache      []string
	cacheTime  time.Time
	cacheMutex sync.RWMutex
}

func New(cfg *config.Config) (*Client, error) {
	var (
		backend StorageProvider
		err     error
	)

	switch cfg.Storage.Provider {
	case "local":
		backend, err = NewLocalProvider(cfg.Storage.LocalPath)
	case "s3":
		backend, err = NewS3Provider(cfg.Storage.KeyID, cfg.Storage.AppKey, cfg.Storage.Endpoint, cfg.Storage.Region)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("storage %s: %w", cfg.Storage.Provider, err)
	}
	return NewWithProvider(backend, cfg.Storage.Bucket), nil
}

// NewWithProvider wraps an already built backend.
func NewWithProvider(backend StorageProvider, bucket string) *Client {
	return &Client{backend: backend, bucket: bucket}
}

// PublishExport uploads one rendered rota file under ExportPrefix.
func (c *Client) PublishExport(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	key := ExportPrefix + name
	if err := c.backend.Put(ctx, c.bucket, key, bytes.NewReader(body), contentType, "no-cache"); err != nil {
		return "", fmt.Errorf("publish %s: %w", key, err)
	}

	c.cacheMutex.Lock()
	c.cache = nil
	c.cacheMutex.Unlock()
	return key, nil
}

// ListExports returns the keys of every published rota file.
func (c *Client) ListExports(ctx context.Context) ([]string, error) {
	c.cacheMutex.RLock()
	keys, ts := c.cache, c.cacheTime
	c.cacheMutex.RUnlock()

	if keys != nil && time.Since(ts) < CacheTTL {
		return keys, nil
	}

	keys, err := c.backend.List(ctx, c.bucket, ExportPrefix)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}

	c.cacheMutex.Lock()
	c.cache = keys
	c.cacheTime = time.Now()
	c.cacheMutex.Unlock()

	return keys, nil
}

// DownloadExport opens a published file. The caller closes Body.
func (c *Client) DownloadExport(ctx context.Context, key string) (*FileObject, error) {
	return c.backend.Get(ctx, c.bucket, key)
}
