package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dustin/go-humanize"
	"google.golang.org/api/option"
)

// GCSClient copies gs:// objects to local files. The underlying
// storage.Client is created on first use so caches that never touch Cloud
// Storage never need credentials.
type GCSClient struct {
	opts []option.ClientOption
	log  *slog.Logger

	mu     sync.Mutex
	client *storage.Client
}

// NewGCSClient returns a GCSClient that builds its storage client with opts.
// A nil logger disables logging.
func NewGCSClient(logger *slog.Logger, opts ...option.ClientOption) *GCSClient {
	return &GCSClient{opts: opts, log: logger}
}

func (c *GCSClient) storageClient(ctx context.Context) (*storage.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := storage.NewClient(ctx, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("new storage client: %w", err)
	}
	c.client = client
	return client, nil
}

// Copy downloads the object named by gsURL into dst, creating or truncating
// it.
func (c *GCSClient) Copy(ctx context.Context, gsURL, dst string) (retErr error) {
	bucket, object, err := SplitGSURL(gsURL)
	if err != nil {
		return err
	}
	client, err := c.storageClient(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("copy %s: %w", gsURL, os.ErrNotExist)
		}
		return fmt.Errorf("open %s: %w", gsURL, err)
	}
	defer func() { _ = r.Close() }()

	out, err := os.Create(dst) //nolint:gosec // G304: dst is a staging path
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("close %s: %w", dst, closeErr)
		}
	}()

	n, err := io.Copy(out, r)
	if err != nil {
		return fmt.Errorf("copy %s: %w", gsURL, err)
	}
	if c.log != nil {
		c.log.Debug("copied object",
			"url", gsURL, "size", humanize.Bytes(uint64(n)), "elapsed", time.Since(start).Round(time.Millisecond)) //nolint:gosec // G115: n >= 0
	}
	return nil
}

// Close releases the storage client if one was created.
func (c *GCSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}
