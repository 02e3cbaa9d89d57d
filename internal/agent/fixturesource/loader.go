package fixturesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const defaultConnectionWaitSeconds = 30

// LoadFrom resolves sourcePath as either an HTTP(S) URL or a local file
// path, reads its bytes, and hands them to Load. An HTTP source is
// retried on a 5xx response until connectionWaitSec elapses, since a
// fixture server started alongside the analyzer may not be ready yet.
func LoadFrom(ctx context.Context, sourcePath string, connectionWaitSec int, replayInterval time.Duration) (*Source, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	if sourcePath == "" {
		return nil, fmt.Errorf("sourcePath must not be empty")
	}
	if connectionWaitSec <= 0 {
		connectionWaitSec = defaultConnectionWaitSeconds
	}

	if u, err := url.Parse(sourcePath); err == nil && u.Host != "" {
		raw, err := fetchHTTP(ctx, u, connectionWaitSec)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch fixture over http: %w", err)
		}
		return Load(raw, replayInterval)
	}

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Load(raw, replayInterval)
}

func fetchHTTP(ctx context.Context, u *url.URL, connectionWaitSec int) ([]byte, error) {
	localCtx, cancel := context.WithTimeout(ctx, time.Duration(connectionWaitSec)*time.Second)
	defer cancel()

	urlStr := u.String()
	for {
		if err := localCtx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(localCtx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to get response from fixture url: %w", err)
		}
		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			resp.Body.Close()
			time.Sleep(5 * time.Millisecond)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture response body: %w", err)
		}
		return body, nil
	}
}
