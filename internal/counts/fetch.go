package counts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "random-image-counts/1.0"

// defaultFetchTimeout bounds a shared fetch when the client sets no timeout.
const defaultFetchTimeout = 10 * time.Second

// detach returns the context for a fetch shared through singleflight. It
// keeps the values of ctx but not its cancellation.
func detach(ctx context.Context, client *http.Client) (context.Context, context.CancelFunc) {
	timeout := client.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// get performs a GET and returns the body of a 2xx response.
func get(ctx context.Context, client *http.Client, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("get %s: %w: %d", rawURL, ErrUnexpectedStatus, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	return body, nil
}
