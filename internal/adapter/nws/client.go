package nws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/paulmach/orb/geojson"
	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
	"github.com/couchcryptid/nws-alert-map/internal/observability"
)

const (
	kindFeed = "feed"
	kindZone = "zone"

	acceptGeoJSON = "application/geo+json"
	maxBodyBytes  = 32 << 20
	maxFeedPages  = 20
)

// Options configures a Client.
type Options struct {
	FeedURL        string
	UserAgent      string
	RequestTimeout time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
}

// Client fetches the active-alerts feed and zone documents from the NWS API.
// It implements domain.ZoneResolver.
type Client struct {
	feedURL    string
	userAgent  string
	httpClient *retryablehttp.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NWS client with bounded retries and a circuit breaker.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.Logger = logger
	// Hand back the last response so the status code survives exhausted retries.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		feedURL:    opts.FeedURL,
		userAgent:  opts.UserAgent,
		httpClient: rc,
		metrics:    metrics,
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "nws",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: isUpstreamHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.NWSBreakerState.Set(float64(to))
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// FetchActiveAlerts retrieves and parses the active-alerts feed, following
// pagination links up to maxFeedPages.
func (c *Client) FetchActiveAlerts(ctx context.Context) (domain.AlertCollection, error) {
	fc, err := c.fetchPage(ctx, c.feedURL)
	if err != nil {
		return domain.AlertCollection{}, err
	}

	seen := map[string]bool{c.feedURL: true}
	next := fc.NextPage()
	for pages := 1; next != "" && !seen[next]; pages++ {
		if pages == maxFeedPages {
			c.logger.Warn("feed page limit reached, ignoring remaining pages", "pages", pages, "next", next)
			break
		}
		seen[next] = true
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return domain.AlertCollection{}, err
		}
		fc.Features = append(fc.Features, page.Features...)
		next = page.NextPage()
	}
	fc.Pagination = nil
	return fc, nil
}

func (c *Client) fetchPage(ctx context.Context, uri string) (domain.AlertCollection, error) {
	body, err := c.get(ctx, uri, kindFeed)
	if err != nil {
		return domain.AlertCollection{}, err
	}
	fc, err := domain.ParseAlertCollection(body)
	if err != nil {
		return domain.AlertCollection{}, &domain.NetworkError{URI: uri, StatusCode: http.StatusOK, Err: err}
	}
	return fc, nil
}

// ResolveZone fetches a zone document and returns its geometry. A zone whose
// geometry is null is reported as a NetworkError.
func (c *Client) ResolveZone(ctx context.Context, zoneRef string) (*geojson.Geometry, error) {
	body, err := c.get(ctx, zoneRef, kindZone)
	if err != nil {
		return nil, err
	}
	g, err := domain.ParseZoneGeometry(body)
	if err != nil {
		return nil, &domain.NetworkError{URI: zoneRef, StatusCode: http.StatusOK, Err: err}
	}
	return g, nil
}

// get performs one GET through the breaker and returns the response body.
// Every failure is a *domain.NetworkError.
func (c *Client) get(ctx context.Context, uri, kind string) ([]byte, error) {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, uri)
	})
	c.metrics.NWSRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.NWSRequests.WithLabelValues(kind, "error").Inc()
		var nerr *domain.NetworkError
		if errors.As(err, &nerr) {
			return nil, nerr
		}
		return nil, &domain.NetworkError{URI: uri, Err: err}
	}
	c.metrics.NWSRequests.WithLabelValues(kind, "success").Inc()
	return body, nil
}

func (c *Client) do(ctx context.Context, uri string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &domain.NetworkError{URI: uri, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptGeoJSON)

	// After exhausted retries the last response comes back together with the
	// retry policy's error; the status code is the more useful of the two.
	resp, err := c.httpClient.Do(req)
	if resp == nil {
		if err == nil {
			err = errors.New("no response")
		}
		return nil, &domain.NetworkError{URI: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.NetworkError{
			URI:        uri,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("nws API error: %s", snippet),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &domain.NetworkError{URI: uri, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return nil, &domain.NetworkError{URI: uri, StatusCode: resp.StatusCode, Err: fmt.Errorf("body exceeds %d bytes", maxBodyBytes)}
	}
	return body, nil
}

// isUpstreamHealthy keeps client errors such as an unknown zone from tripping
// the breaker; only transport failures, 429 and 5xx count against NWS.
func isUpstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var nerr *domain.NetworkError
	if errors.As(err, &nerr) {
		s := nerr.StatusCode
		return s >= 400 && s < 500 && s != http.StatusTooManyRequests
	}
	return false
}
