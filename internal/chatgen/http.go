package chatgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/waffles/internal/domain/types"
	"github.com/okian/waffles/pkg/logger"
)

// Client talks to a running tracker.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Upload posts text as the multipart field "file" to /upload.
func (c *Client) Upload(ctx context.Context, text string) (types.ImportResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "chat.txt")
	if err != nil {
		return types.ImportResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.WriteString(fw, text); err != nil {
		return types.ImportResult{}, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return types.ImportResult{}, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return types.ImportResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res types.ImportResult
	if err := c.do(req, &res); err != nil {
		return types.ImportResult{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return res, nil
}

// Summary fetches GET /summary.
func (c *Client) Summary(ctx context.Context) (types.Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/summary", http.NoBody)
	if err != nil {
		return types.Summary{}, fmt.Errorf("create request: %w", err)
	}
	var sum types.Summary
	if err := c.do(req, &sum); err != nil {
		return types.Summary{}, err
	}
	return sum, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s: %d %s", ErrBadResponse, req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(b))
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrBadResponse, err)
	}
	return nil
}

// uploadAll posts the export cfg.Uploads times using cfg.Workers concurrent
// uploaders. Only the first accepted upload should add events; every other
// one must report them as duplicates.
func uploadAll(ctx context.Context, cfg *Config, c *Client, export Export, stats *Stats) {
	var (
		uploads    int64
		failed     int64
		accepted   int64
		duplicates int64
	)
	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				res, err := c.Upload(ctx, export.Text)
				atomic.AddInt64(&uploads, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					logger.Get().Warn(ctx, "upload failed", logger.Int("upload", n), logger.Error(err))
					continue
				}
				atomic.AddInt64(&accepted, int64(res.Accepted))
				atomic.AddInt64(&duplicates, int64(res.Duplicates))
				logger.Get().Info(ctx, "upload processed",
					logger.Int("upload", n),
					logger.String("import_id", res.ImportID),
					logger.Int("accepted", res.Accepted),
					logger.Int("duplicates", res.Duplicates),
					logger.Int("total", res.Total))
			}
		}()
	}

	go func() {
		defer close(jobs)
		for n := 1; n <= cfg.Uploads; n++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- n:
			}
		}
	}()
	wg.Wait()

	stats.Uploads = int(atomic.LoadInt64(&uploads))
	stats.Failed = int(atomic.LoadInt64(&failed))
	stats.Accepted = int(atomic.LoadInt64(&accepted))
	stats.Duplicates = int(atomic.LoadInt64(&duplicates))
}
