package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPSource pulls transactions from the exchange's paginated REST API.
// Credentials and endpoint are explicit construction-time configuration,
// never process-wide state.
type HTTPSource struct {
	baseURL     string
	token       string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// Option configures HTTPSource.
type Option func(*HTTPSource)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSource) {
		s.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts per page.
func WithMaxRetries(n int) Option {
	return func(s *HTTPSource) {
		s.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(s *HTTPSource) {
		s.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// NewHTTPSource creates a source for the given API endpoint and bearer token.
func NewHTTPSource(baseURL, token string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		baseURL:     baseURL,
		token:       token,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// page is one paginated API response.
type page struct {
	Data        []map[string]any `json:"data"`
	CurrentPage int              `json:"current_page"`
	LastPage    int              `json:"last_page"`
}

// Fetch pages through the API until no further page is reported and returns
// the concatenated record sequence. Blocks until exhausted; retry with
// exponential backoff covers transient network and 5xx failures per page.
func (s *HTTPSource) Fetch(ctx context.Context) ([]map[string]any, error) {
	var records []map[string]any

	for pageNum := 1; ; pageNum++ {
		p, err := s.fetchPage(ctx, pageNum)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pageNum, err)
		}

		records = append(records, p.Data...)

		if len(p.Data) == 0 || p.LastPage == 0 || p.CurrentPage >= p.LastPage {
			break
		}
	}

	return records, nil
}

// fetchPage retrieves a single page with retries and exponential backoff.
func (s *HTTPSource) fetchPage(ctx context.Context, pageNum int) (*page, error) {
	url := fmt.Sprintf("%s?page=%d", s.baseURL, pageNum)

	delay := s.retryDelay
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * s.backoffMult)
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
		}

		p, err := s.doRequest(ctx, url)
		if err == nil {
			return p, nil
		}
		lastErr = err

		// Context errors are not retryable
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxRetries+1, lastErr)
}

func (s *HTTPSource) doRequest(ctx context.Context, url string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &p, nil
}
