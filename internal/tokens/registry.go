package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// Registry fetches the verified token allow-list from an HTTP token registry
// and caches it for a TTL. Pools holding tokens outside the list are excluded
// from platform-wide totals.
type Registry struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	ttl        time.Duration

	mu        sync.RWMutex
	cached    map[domain.TokenID]struct{}
	expiresAt time.Time
}

// NewRegistry creates a new token registry client.
func NewRegistry(baseURL string, maxRetries int, baseDelay, ttl time.Duration) *Registry {
	return &Registry{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		ttl:        ttl,
	}
}

type registryEntry struct {
	ID domain.TokenID `json:"id"`
}

// FetchTokens returns the current allow-list, serving from cache while fresh.
func (r *Registry) FetchTokens(ctx context.Context) (map[domain.TokenID]struct{}, error) {
	r.mu.RLock()
	if r.cached != nil && time.Now().Before(r.expiresAt) {
		cached := r.cached
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	body, err := r.get(ctx, "/tokens")
	if err != nil {
		return nil, err
	}

	var entries []registryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parsing token registry response: %w", err)
	}

	tokens := make(map[domain.TokenID]struct{}, len(entries))
	for _, e := range entries {
		tokens[e.ID] = struct{}{}
	}

	r.mu.Lock()
	r.cached = tokens
	r.expiresAt = time.Now().Add(r.ttl)
	r.mu.Unlock()

	return tokens, nil
}

// get performs a GET request with retry on 429.
func (r *Registry) get(ctx context.Context, path string) ([]byte, error) {
	url := r.baseURL + path

	var lastErr error
	for attempt := range r.maxRetries + 1 {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("HTTP 429 at %s (attempt %d/%d)", url, attempt+1, r.maxRetries+1)
			if attempt < r.maxRetries {
				delay := r.baseDelay * time.Duration(1<<uint(attempt))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, lastErr
		}

		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(body))
	}

	return nil, lastErr
}
