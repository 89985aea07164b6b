package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"habbo-tracker/internal/config"
	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/domain"
	"habbo-tracker/internal/hotel"
	"habbo-tracker/internal/monitoring"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const userAgent = "habbo-tracker/1.0"

type HabboClient struct {
	client  *fasthttp.Client
	limiter *rate.Limiter
	timeout time.Duration

	// baseURL is swapped in tests to point at a local server.
	baseURL func(hotel.Hotel) string
}

func NewHabboClient(cfg *config.Config) *HabboClient {
	return &HabboClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst),
		timeout: constants.ExternalAPITimeout,
		baseURL: hotel.Hotel.BaseURL,
	}
}

// FetchProfile returns the upstream profile document for a player. A single
// attempt is made; failures map to ErrInvalidDeployment, ErrPlayerNotFound or
// ErrUpstreamUnavailable.
func (c *HabboClient) FetchProfile(ctx context.Context, hotelID, playerID string) (*domain.Profile, error) {
	h, err := c.resolve(hotelID, playerID)
	if err != nil {
		return nil, err
	}

	uri := fmt.Sprintf("%s/api/public/users/%s/profile", c.baseURL(h), url.PathEscape(playerID))
	body, err := c.get(ctx, h.ID, "profile", uri)
	if err != nil {
		return nil, err
	}

	if !hasPrefix(body, '{') {
		return nil, fmt.Errorf("%w: profile is not a JSON object", domain.ErrUpstreamUnavailable)
	}
	var profile domain.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %w", domain.ErrUpstreamUnavailable, err)
	}
	if profile.Badges == nil {
		profile.Badges = []domain.Badge{}
	}
	return &profile, nil
}

func (c *HabboClient) FetchGroups(ctx context.Context, hotelID, playerID string) (json.RawMessage, error) {
	h, err := c.resolve(hotelID, playerID)
	if err != nil {
		return nil, err
	}

	uri := fmt.Sprintf("%s/api/public/users/%s/groups", c.baseURL(h), url.PathEscape(playerID))
	body, err := c.get(ctx, h.ID, "groups", uri)
	if err != nil {
		return nil, err
	}

	if !hasPrefix(body, '[') || !json.Valid(body) {
		return nil, fmt.Errorf("%w: groups is not a JSON array", domain.ErrUpstreamUnavailable)
	}
	return json.RawMessage(body), nil
}

func (c *HabboClient) resolve(hotelID, playerID string) (hotel.Hotel, error) {
	h, ok := hotel.ByID(hotelID)
	if !ok {
		return hotel.Hotel{}, fmt.Errorf("%w: %q", domain.ErrInvalidDeployment, hotelID)
	}
	if playerID == "" {
		return hotel.Hotel{}, fmt.Errorf("%w: empty player id", domain.ErrInvalidInput)
	}
	return h, nil
}

func (c *HabboClient) get(ctx context.Context, hotelID, endpoint, uri string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	status := "error"
	defer func() {
		monitoring.UpstreamRequest.
			WithLabelValues(hotelID, endpoint, status).
			Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		status = "throttled"
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrUpstreamUnavailable, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.SetUserAgent(userAgent)

	deadline, _ := ctx.Deadline()
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUpstreamUnavailable, endpoint, err)
	}

	status = strconv.Itoa(resp.StatusCode())
	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, domain.ErrPlayerNotFound
	default:
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrUpstreamUnavailable, endpoint, resp.StatusCode())
	}

	// resp is returned to the pool on exit
	return append([]byte(nil), resp.Body()...), nil
}

func hasPrefix(body []byte, b byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) > 0 && body[0] == b
}
