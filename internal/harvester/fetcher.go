package harvester

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
	"github.com/kurihiro0119/opendata-harvester/internal/remote"
)

const (
	maxFetchAttempts = 3
	baseBackoff      = 500 * time.Millisecond
)

// Fetcher retrieves one full record body per remote identifier. It
// shares the source's remote client with the paginator so both apply
// the same authentication and header policy.
type Fetcher struct {
	src    *domain.Source
	client *remote.Client
}

// NewFetcher creates a fetcher for one source configuration.
func NewFetcher(src *domain.Source, client *remote.Client) *Fetcher {
	return &Fetcher{src: src, client: client}
}

// Fetch retrieves the record for remoteID. Transient failures (5xx,
// timeouts) are retried with exponential backoff up to maxFetchAttempts;
// 4xx responses and malformed bodies fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, remoteID string) (map[string]interface{}, error) {
	var lastErr error

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if attempt > 1 {
			backoff := baseBackoff << (attempt - 2)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		payload, err := f.fetchOnce(ctx, remoteID)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if !transient(err) {
			return nil, apperrors.NewFetchError(remoteID, fmt.Sprintf("fetch failed: %v", err), false, err)
		}
	}

	return nil, apperrors.NewFetchError(remoteID,
		fmt.Sprintf("fetch failed after %d attempts: %v", maxFetchAttempts, lastErr), true, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, remoteID string) (map[string]interface{}, error) {
	if f.src.Mode == domain.ModeGraphQL {
		data, err := f.client.GraphQL(ctx, f.src.GraphPath, f.src.DetailQuery,
			map[string]interface{}{"id": remoteID})
		if err != nil {
			return nil, err
		}
		if record, ok := data["dataset"].(map[string]interface{}); ok {
			return record, nil
		}
		// Single-field detail queries under a different name.
		for _, v := range data {
			if record, ok := v.(map[string]interface{}); ok {
				return record, nil
			}
		}
		return nil, fmt.Errorf("detail response for %s contains no record", remoteID)
	}

	path := strings.ReplaceAll(f.src.DetailPath, "{id}", url.PathEscape(remoteID))
	return f.client.Get(ctx, path, nil)
}

// transient reports whether a fetch error is worth another attempt.
func transient(err error) bool {
	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var decodeErr *remote.DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Connection resets and refused connections surface as *url.Error.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return false
}
