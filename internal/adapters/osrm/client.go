// Package osrm implements the roadnet port against an OSRM-compatible
// HTTP service, with per-city backends, rate limiting, retries, an LRU
// result cache and a circuit breaker.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/roadnet"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
)

const (
	defaultRouteTimeout         = 30 * time.Second
	defaultTableBaseTimeout     = 8 * time.Second
	defaultTablePerPointTimeout = 150 * time.Millisecond
	defaultMaxRetries           = 2
	defaultBackoffBase          = 500 * time.Millisecond
	defaultRateLimit            = 10
	defaultRateBurst            = 10
	defaultCacheSize            = 512
	defaultBreakerMaxFailures   = 5
	defaultBreakerResetTimeout  = 30 * time.Second
)

// MetricsRecorder receives one observation per road service call.
type MetricsRecorder interface {
	RecordRoadCall(op, status string, seconds float64)
}

// Options configures the client. Zero fields take the package defaults.
type Options struct {
	DefaultURL string
	CityURLs   map[string]string

	RouteTimeout         time.Duration
	TableBaseTimeout     time.Duration
	TablePerPointTimeout time.Duration

	RateLimit   float64
	RateBurst   int
	MaxRetries  int
	BackoffBase time.Duration

	CacheSize           int
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	Clock   shared.Clock
	Metrics MetricsRecorder
}

// Client is the OSRM road service adapter. It implements roadnet.Service.
type Client struct {
	httpClient *http.Client
	defaultURL string
	cityURLs   map[string]string

	limiter *rate.Limiter
	breaker *CircuitBreaker

	routeCache *lru.Cache[string, *roadnet.RouteResult]
	tableCache *lru.Cache[string, *roadnet.TableResult]

	routeTimeout         time.Duration
	tableBaseTimeout     time.Duration
	tablePerPointTimeout time.Duration
	maxRetries           int
	backoffBase          time.Duration

	clock   shared.Clock
	metrics MetricsRecorder
}

// NewClient creates a road service client.
func NewClient(opts Options) (*Client, error) {
	if opts.DefaultURL == "" {
		return nil, fmt.Errorf("road service default URL is required")
	}
	if opts.RouteTimeout == 0 {
		opts.RouteTimeout = defaultRouteTimeout
	}
	if opts.TableBaseTimeout == 0 {
		opts.TableBaseTimeout = defaultTableBaseTimeout
	}
	if opts.TablePerPointTimeout == 0 {
		opts.TablePerPointTimeout = defaultTablePerPointTimeout
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = defaultRateBurst
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = defaultBreakerMaxFailures
	}
	if opts.BreakerResetTimeout == 0 {
		opts.BreakerResetTimeout = defaultBreakerResetTimeout
	}
	if opts.Clock == nil {
		opts.Clock = shared.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}

	routeCache, err := lru.New[string, *roadnet.RouteResult](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create route cache: %w", err)
	}
	tableCache, err := lru.New[string, *roadnet.TableResult](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create table cache: %w", err)
	}

	return &Client{
		httpClient:           &http.Client{},
		defaultURL:           strings.TrimRight(opts.DefaultURL, "/"),
		cityURLs:             opts.CityURLs,
		limiter:              rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		breaker:              NewCircuitBreaker(opts.BreakerMaxFailures, opts.BreakerResetTimeout, opts.Clock),
		routeCache:           routeCache,
		tableCache:           tableCache,
		routeTimeout:         opts.RouteTimeout,
		tableBaseTimeout:     opts.TableBaseTimeout,
		tablePerPointTimeout: opts.TablePerPointTimeout,
		maxRetries:           opts.MaxRetries,
		backoffBase:          opts.BackoffBase,
		clock:                opts.Clock,
		metrics:              opts.Metrics,
	}, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordRoadCall(op, status string, seconds float64) {}

// Route fetches the driven route visiting the request points in order and
// applies the request's traffic buffer to the total duration.
func (c *Client) Route(ctx context.Context, req roadnet.RouteRequest) (*roadnet.RouteResult, error) {
	if len(req.Points) < 2 {
		return nil, shared.NewRoadServiceError("route", req.City, "need at least two points", nil)
	}

	key := cacheKey("route", req.City, req.Points, nil, nil, req.TrafficBuffer)
	if cached, ok := c.routeCache.Get(key); ok {
		return cached, nil
	}

	var response struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Geometry string  `json:"geometry"`
			Legs     []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"legs"`
		} `json:"routes"`
		Waypoints []struct {
			Location []float64 `json:"location"`
		} `json:"waypoints"`
	}

	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=full&geometries=polyline&steps=false",
		c.baseFor(req.City), coordPath(req.Points))
	if err := c.get(ctx, "route", req.City, url, c.routeTimeout, &response); err != nil {
		return nil, err
	}

	if response.Code != "Ok" {
		return nil, shared.NewRoadServiceError("route", req.City,
			fmt.Sprintf("expected Ok response code, got %q", response.Code), nil)
	}
	if len(response.Routes) == 0 {
		return nil, shared.NewRoadServiceError("route", req.City, "no routes in response", nil)
	}

	best := response.Routes[0]
	if len(best.Legs) != len(req.Points)-1 {
		return nil, shared.NewRoadServiceError("route", req.City,
			fmt.Sprintf("leg count %d does not match %d input points", len(best.Legs), len(req.Points)), nil)
	}
	// Waypoints, when present, only confirm the input order was preserved.
	if len(response.Waypoints) > 0 && len(response.Waypoints) != len(req.Points) {
		return nil, shared.NewRoadServiceError("route", req.City,
			fmt.Sprintf("waypoint count %d does not match %d input points", len(response.Waypoints), len(req.Points)), nil)
	}

	geometry, err := geo.DecodePolyline(best.Geometry)
	if err != nil {
		return nil, shared.NewRoadServiceError("route", req.City, "bad geometry polyline", err)
	}

	legs := make([]roadnet.Leg, len(best.Legs))
	for i, l := range best.Legs {
		legs[i] = roadnet.Leg{DistanceMeters: l.Distance, DurationSeconds: l.Duration}
	}

	result := &roadnet.RouteResult{
		DistanceMeters:     best.Distance,
		RawDurationSeconds: best.Duration,
		DurationSeconds:    best.Duration * (1 + req.TrafficBuffer),
		Legs:               legs,
		EncodedPolyline:    best.Geometry,
		Geometry:           geometry,
	}
	c.routeCache.Add(key, result)
	return result, nil
}

// Table fetches distance and duration matrices over the request points,
// optionally restricted to source/destination index subsets.
func (c *Client) Table(ctx context.Context, req roadnet.TableRequest) (*roadnet.TableResult, error) {
	if len(req.Points) < 2 {
		return nil, shared.NewRoadServiceError("table", req.City, "need at least two points", nil)
	}

	key := cacheKey("table", req.City, req.Points, req.Sources, req.Destinations, 0)
	if cached, ok := c.tableCache.Get(key); ok {
		return cached, nil
	}

	var response struct {
		Code      string      `json:"code"`
		Distances [][]float64 `json:"distances"`
		Durations [][]float64 `json:"durations"`
	}

	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=distance,duration",
		c.baseFor(req.City), coordPath(req.Points))
	if len(req.Sources) > 0 {
		url += "&sources=" + indexList(req.Sources)
	}
	if len(req.Destinations) > 0 {
		url += "&destinations=" + indexList(req.Destinations)
	}

	timeout := c.tableBaseTimeout + time.Duration(len(req.Points))*c.tablePerPointTimeout
	if err := c.get(ctx, "table", req.City, url, timeout, &response); err != nil {
		return nil, err
	}

	if response.Code != "Ok" {
		return nil, shared.NewRoadServiceError("table", req.City,
			fmt.Sprintf("expected Ok response code, got %q", response.Code), nil)
	}

	rows := len(req.Sources)
	if rows == 0 {
		rows = len(req.Points)
	}
	if len(response.Distances) != rows || len(response.Durations) != rows {
		return nil, shared.NewRoadServiceError("table", req.City, "matrix row count mismatch", nil)
	}

	result := &roadnet.TableResult{
		DistancesMeters:  response.Distances,
		DurationsSeconds: response.Durations,
	}
	c.tableCache.Add(key, result)
	return result, nil
}

// Probe checks that the backend serving the city answers a trivial route
// request. Probe results are not cached.
func (c *Client) Probe(ctx context.Context, city string, at geo.Point) error {
	var response struct {
		Code string `json:"code"`
	}

	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=false",
		c.baseFor(city), coordPath([]geo.Point{at, at}))
	if err := c.get(ctx, "probe", city, url, c.tableBaseTimeout, &response); err != nil {
		return err
	}
	if response.Code != "Ok" {
		return shared.NewRoadServiceError("probe", city,
			fmt.Sprintf("expected Ok response code, got %q", response.Code), nil)
	}
	return nil
}

// baseFor resolves the backend URL for a city, falling back to the default.
func (c *Client) baseFor(city string) string {
	if url, ok := c.cityURLs[city]; ok && url != "" {
		return strings.TrimRight(url, "/")
	}
	return c.defaultURL
}

// get performs a GET with rate limiting, bounded retries and circuit
// breaker protection, decoding the JSON body into result. Any failure is
// returned as a tagged RoadServiceError.
func (c *Client) get(ctx context.Context, op, city, url string, timeout time.Duration, result interface{}) error {
	started := time.Now()
	err := c.breaker.Call(func() error {
		return c.getWithRetries(ctx, url, timeout, result)
	})
	elapsed := time.Since(started).Seconds()

	if err != nil {
		c.metrics.RecordRoadCall(op, "error", elapsed)
		var rse *shared.RoadServiceError
		if errors.As(err, &rse) {
			return err
		}
		return shared.NewRoadServiceError(op, city, err.Error(), err)
	}
	c.metrics.RecordRoadCall(op, "ok", elapsed)
	return nil
}

func (c *Client) getWithRetries(ctx context.Context, url string, timeout time.Duration, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		body, status, err := c.doOnce(ctx, url, timeout)
		if err == nil && status == http.StatusOK {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		if err != nil {
			lastErr = fmt.Errorf("network error: %w", err)
		} else {
			lastErr = fmt.Errorf("unexpected status %d", status)
			// Client errors other than 429 will not improve on retry.
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				return lastErr
			}
		}

		if attempt >= c.maxRetries {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		}
		c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, url string, timeout time.Duration) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// addJitter spreads a backoff delay over 0.5x-1.5x to avoid thundering herd
func addJitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.5 + rand.Float64()))
}

// coordPath renders points as OSRM "lng,lat;lng,lat" path segments.
func coordPath(points []geo.Point) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%.6f,%.6f", p.Lng, p.Lat)
	}
	return b.String()
}

func indexList(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ";")
}

func cacheKey(op, city string, points []geo.Point, sources, destinations []int, buffer float64) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteByte('|')
	b.WriteString(city)
	b.WriteByte('|')
	b.WriteString(coordPath(points))
	b.WriteByte('|')
	b.WriteString(indexList(sources))
	b.WriteByte('|')
	b.WriteString(indexList(destinations))
	b.WriteByte('|')
	fmt.Fprintf(&b, "%.2f", buffer)
	return b.String()
}
