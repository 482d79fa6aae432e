// Package fetch defines the upstream collaborator interfaces for the
// signal engine and an HTTP implementation guarded by a rate limiter
// and a circuit breaker.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// HTTPConfig holds upstream connection settings.
type HTTPConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RatePerSecond  float64
	RateBurst      int
	BreakerTimeout time.Duration
	MaxFailures    uint32
}

// DefaultHTTPConfig returns production upstream settings.
func DefaultHTTPConfig(baseURL string) HTTPConfig {
	return HTTPConfig{
		BaseURL:        baseURL,
		RequestTimeout: 10 * time.Second,
		RatePerSecond:  5,
		RateBurst:      10,
		BreakerTimeout: 30 * time.Second,
		MaxFailures:    5,
	}
}

// HTTPFetcher implements Fetchers against the snapshot aggregator API.
// Requests pass through a shared token-bucket limiter and a circuit
// breaker; an open breaker fails fast without touching the upstream.
type HTTPFetcher struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewHTTPFetcher creates a guarded fetcher for the configured upstream.
func NewHTTPFetcher(cfg HTTPConfig, log zerolog.Logger) *HTTPFetcher {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "snapshot-upstream",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("upstream breaker state change")
		},
	})

	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = int(rps)
	}

	return &HTTPFetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: breaker,
		log:     log,
	}
}

// FetchSnapshot retrieves the accounting snapshot for a business.
func (f *HTTPFetcher) FetchSnapshot(ctx context.Context, businessID string) (*Snapshot, error) {
	var snap Snapshot
	if err := f.getJSON(ctx, "/api/cfo/snapshot", businessID, &snap); err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	return &snap, nil
}

// FetchGAData retrieves web-analytics deltas for a business.
func (f *HTTPFetcher) FetchGAData(ctx context.Context, businessID string) (*GAData, error) {
	var ga GAData
	if err := f.getJSON(ctx, "/api/cfo/analytics", businessID, &ga); err != nil {
		return nil, fmt.Errorf("fetch ga data: %w", err)
	}
	return &ga, nil
}

// FetchAudienceLab retrieves audience segments for a business.
func (f *HTTPFetcher) FetchAudienceLab(ctx context.Context, businessID string) ([]AudienceSegment, error) {
	var segments []AudienceSegment
	if err := f.getJSON(ctx, "/api/cfo/audience", businessID, &segments); err != nil {
		return nil, fmt.Errorf("fetch audience lab: %w", err)
	}
	return segments, nil
}

func (f *HTTPFetcher) getJSON(ctx context.Context, path, businessID string, out interface{}) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, err := f.breaker.Execute(func() (interface{}, error) {
		u := fmt.Sprintf("%s%s?businessId=%s", f.cfg.BaseURL, path, url.QueryEscape(businessID))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("upstream request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	return err
}
