package tariff

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/service"
)

// HTTPFetcher implements service.LiveRateFetcher against a rate publisher
// exposing GET {base}/rates/{program}/{code} returning {"rate": <pct>}.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	retryOpts  service.RetryOptions
}

// NewHTTPFetcher creates a live-rate fetcher for the given publisher URL.
func NewHTTPFetcher(baseURL string, retryOpts service.RetryOptions) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryOpts:  retryOpts,
	}
}

// FetchLiveRate returns the publisher's current rate for one program and
// code. Server errors and rate limits are retried with backoff; anything
// still failing surfaces as ErrUpstreamUnavailable so the registry can
// degrade to a cached value.
func (f *HTTPFetcher) FetchLiveRate(ctx context.Context, programID, code string) (float64, error) {
	endpoint := fmt.Sprintf("%s/rates/%s/%s", f.baseURL, url.PathEscape(programID), url.PathEscape(code))

	var rate float64
	err := common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return &common.RetryableError{Err: common.ErrRateLimit, Retryable: true}
		case resp.StatusCode >= 500:
			return &common.RetryableError{Err: fmt.Errorf("publisher returned %d", resp.StatusCode), Retryable: true}
		case resp.StatusCode != http.StatusOK:
			return &common.RetryableError{
				Err:       fmt.Errorf("publisher returned %d for %s/%s", resp.StatusCode, programID, code),
				Retryable: false,
			}
		}

		var body struct {
			Rate float64 `json:"rate"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("failed to decode rate response: %w", err)
		}
		rate = body.Rate
		return nil
	}, f.retryOpts)
	if err != nil {
		return 0, fmt.Errorf("%w: live rate for %s/%s: %v", common.ErrUpstreamUnavailable, programID, code, err)
	}
	return rate, nil
}
