package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/matchfeed/internal/core/domain"
	"github.com/vietddude/matchfeed/internal/matching/metrics"
)

// Config holds settings for the matching service client.
type Config struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// Client performs single round trips to the matching service and maps
// transport and HTTP failures to the classified error taxonomy. It does no
// retrying of its own; resilience policy lives in the circuit breaker and
// the recovery controller.
type Client struct {
	baseURL    string
	authToken  string
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a matching service client.
func New(cfg Config, log *slog.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		timeout:   cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}
}

// matchListRequest is the wire payload of the match-list endpoint.
type matchListRequest struct {
	Page           int      `json:"page,omitempty"`
	PageSize       int      `json:"pageSize,omitempty"`
	Cursor         string   `json:"cursor,omitempty"`
	ZodiacSign     string   `json:"zodiac_sign,omitempty"`
	ActivityType   string   `json:"activity_type,omitempty"`
	MinAge         int      `json:"min_age,omitempty"`
	MaxAge         int      `json:"max_age,omitempty"`
	MaxDistanceKM  float64  `json:"max_distance_km,omitempty"`
	Refresh        bool     `json:"refresh,omitempty"`
	ExcludeUserIDs []string `json:"exclude_user_ids,omitempty"`
	Limit          int      `json:"limit,omitempty"`
}

type matchListResponse struct {
	Data       []domain.Candidate `json:"data"`
	Pagination struct {
		NextCursor string `json:"nextCursor"`
	} `json:"pagination"`
}

type swipeRequest struct {
	SwipedID  string           `json:"swiped_id"`
	SwipeType domain.SwipeType `json:"swipe_type"`
}

type confirmRequest struct {
	TargetUserID string `json:"target_user_id"`
	RequestID    string `json:"request_id"`
}

// FetchMatches retrieves one page of candidates. An empty successful payload
// is not an error; it yields an empty page with no cursor.
func (c *Client) FetchMatches(
	ctx context.Context,
	filters domain.FetchFilters,
	excludeIDs []string,
) (*domain.Page, error) {
	req := matchListRequest{
		Page:           filters.Page,
		PageSize:       filters.PageSize,
		Cursor:         filters.Cursor,
		ZodiacSign:     filters.ZodiacSign,
		ActivityType:   filters.DateActivity,
		MinAge:         filters.MinAge,
		MaxAge:         filters.MaxAge,
		MaxDistanceKM:  filters.MaxDistance,
		Refresh:        filters.Refresh,
		ExcludeUserIDs: excludeIDs,
		Limit:          filters.Limit,
	}

	var resp matchListResponse
	if err := c.post(ctx, "/matches/potential", req, &resp); err != nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.FetchesTotal.WithLabelValues("ok").Inc()

	page := &domain.Page{
		Candidates: resp.Data,
		NextCursor: resp.Pagination.NextCursor,
	}
	return page, nil
}

// RecordSwipe posts a like/pass decision and returns the backend's view of
// it, including whether a mutual match was created.
func (c *Client) RecordSwipe(
	ctx context.Context,
	swipedID string,
	swipeType domain.SwipeType,
) (*domain.SwipeResult, error) {
	req := swipeRequest{SwipedID: swipedID, SwipeType: swipeType}

	var result domain.SwipeResult
	if err := c.post(ctx, "/matches/swipe", req, &result); err != nil {
		return nil, err
	}
	metrics.SwipesTotal.WithLabelValues(string(swipeType)).Inc()
	return &result, nil
}

// ConfirmMatch confirms a match with the target user for a request.
func (c *Client) ConfirmMatch(
	ctx context.Context,
	targetUserID, requestID string,
) (*domain.ConfirmResult, error) {
	req := confirmRequest{TargetUserID: targetUserID, RequestID: requestID}

	var result domain.ConfirmResult
	if err := c.post(ctx, "/matches/confirm", req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, domain.NewError(domain.KindMatchConfirmFailed, "match confirmation rejected", nil)
	}
	return &result, nil
}

// post issues one JSON POST with the configured deadline and maps failures
// to classified errors.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	jsonData, err := json.Marshal(body)
	if err != nil {
		return domain.NewError(domain.KindUnknown, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return domain.NewError(domain.KindUnknown, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := domain.Classify(err)
		metrics.FetchErrorsTotal.WithLabelValues(classified.Kind.String()).Inc()
		return classified
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		metrics.FetchErrorsTotal.WithLabelValues(domain.Classify(err).Kind.String()).Inc()
		return err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewError(domain.KindNetworkFailed, "read response", err)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return domain.NewError(domain.KindNetworkFailed, "decode response", err)
		}
	}
	return nil
}

// checkStatus maps HTTP status codes to the error taxonomy.
func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.NewError(domain.KindAuthTokenExpired, "authentication token expired", nil)
	case resp.StatusCode == http.StatusForbidden:
		return domain.NewError(domain.KindAuthPermissionDenied, "permission denied", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		c.log.Warn("Rate limited by matching service", "retry_after", retryAfter)
		return domain.NewError(domain.KindRateLimited,
			fmt.Sprintf("rate limited, retry after: %s", retryAfter), nil)
	default:
		return domain.NewError(domain.KindNetworkFailed,
			fmt.Sprintf("http %d from matching service", resp.StatusCode), nil)
	}
}
