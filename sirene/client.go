package sirene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.insee.fr/api-sirene/3.11"

	siretEndpoint = "/siret"
	sirenEndpoint = "/siren"

	defaultTimeout = 10 * time.Second

	// INSEE public quota is 30 calls/minute; stay just under it.
	defaultRateLimit = rate.Limit(0.5)
)

// ClientConfig configures the transport client. Zero values fall back to
// the defaults above.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  rate.Limit
	HTTPClient *http.Client
}

// Client issues authenticated requests against the registry API. It does
// no retries and no business interpretation; both belong to the Service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 2,
			},
		}
	}

	limit := cfg.RateLimit
	if limit == 0 {
		limit = defaultRateLimit
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// FetchPage runs one paginated /siret search. The query string is encoded
// exactly once, as a whole, by url.Values.
func (c *Client) FetchPage(ctx context.Context, query string, pageSize, page int, fields []string) (*RawPage, error) {
	if pageSize < 1 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("nombre", strconv.Itoa(pageSize))
	params.Set("debut", strconv.Itoa((page-1)*pageSize))
	if len(fields) > 0 {
		params.Set("champs", joinFields(fields))
	}

	return c.get(ctx, siretEndpoint, params)
}

// FetchUniteLegale runs one /siren/{siren} point lookup, optionally at a
// given date.
func (c *Client) FetchUniteLegale(ctx context.Context, siren, date string) (*RawPage, error) {
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}

	return c.get(ctx, sirenEndpoint+"/"+siren, params)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*RawPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classifyTransportErr(endpoint, err)
	}

	requestURL := c.baseURL + endpoint
	if encoded := params.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("création de la requête: %w", err)
	}

	req.Header.Set("Accept", "application/json;charset=utf-8")
	if c.apiKey != "" {
		req.Header.Set("X-INSEE-Api-Key-Integration", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportErr(endpoint, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var page RawPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("décodage de la réponse INSEE: %w", err)
	}

	return &page, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Status: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{What: resp.Request.URL.Path}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(resp)}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
}

func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}

	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	return 0
}

func classifyTransportErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Op: op, Err: err}
	}

	// Status 0 marks a network-level fault rather than an HTTP response.
	return &UpstreamError{Status: 0, Body: err.Error()}
}
