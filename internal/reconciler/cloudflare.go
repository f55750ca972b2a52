// Package reconciler keeps a managed DNS zone's A-records equal to the
// set derived from a Traefik-style declarative source plus a fixed
// reserved-name set.
package reconciler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/interfaces"
	"github.com/caimel/mediacore/internal/models"
)

const (
	defaultCloudflareBaseURL = "https://api.cloudflare.com/client/v4"
	defaultCloudflareTimeout = 15 * time.Second
	defaultCloudflareRate    = 4 // requests per second
)

// CloudflareClient implements interfaces.DNSProvider against the
// Cloudflare v4 API: functional options, a rate limiter, structured
// logging.
type CloudflareClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *common.Logger
}

// CloudflareOption configures a CloudflareClient.
type CloudflareOption func(*CloudflareClient)

// WithCloudflareBaseURL overrides the API base URL (for tests).
func WithCloudflareBaseURL(baseURL string) CloudflareOption {
	return func(c *CloudflareClient) { c.baseURL = baseURL }
}

// WithCloudflareLogger sets the logger.
func WithCloudflareLogger(logger *common.Logger) CloudflareOption {
	return func(c *CloudflareClient) { c.logger = logger }
}

// WithCloudflareRateLimit sets the requests-per-second cap.
func WithCloudflareRateLimit(rps int) CloudflareOption {
	return func(c *CloudflareClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), rps) }
}

// NewCloudflareClient builds a client authorized with apiToken.
func NewCloudflareClient(apiToken string, opts ...CloudflareOption) *CloudflareClient {
	c := &CloudflareClient{
		baseURL:    defaultCloudflareBaseURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: defaultCloudflareTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultCloudflareRate), defaultCloudflareRate),
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cfResponse[T any] struct {
	Success bool `json:"success"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Result T `json:"result"`
}

func (e *cfResponse[T]) err(op string) error {
	msg := "unknown error"
	if len(e.Errors) > 0 {
		msg = e.Errors[0].Message
	}
	return fmt.Errorf("reconciler: cloudflare %s: %s", op, msg)
}

func (c *CloudflareClient) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("reconciler: cloudflare rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("reconciler: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("reconciler: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("method", method).Str("path", path).Msg("cloudflare API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reconciler: cloudflare request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("reconciler: decode cloudflare response: %w", err)
	}
	return nil
}

// ZoneID resolves the zone id for domain.
func (c *CloudflareClient) ZoneID(ctx context.Context, domain string) (string, error) {
	var resp cfResponse[[]struct {
		ID string `json:"id"`
	}]
	path := "/zones?name=" + url.QueryEscape(domain)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", resp.err("get zone id")
	}
	if len(resp.Result) == 0 {
		return "", fmt.Errorf("reconciler: no zone found for domain %s", domain)
	}
	return resp.Result[0].ID, nil
}

type cfRecord struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// ListRecords fetches the full record list of zoneID in one request
// (matching sync_cloudflare.py, which fetches it once per pass) and
// returns only its type-A records.
func (c *CloudflareClient) ListRecords(ctx context.Context, zoneID string) ([]models.DNSRecord, error) {
	var resp cfResponse[[]cfRecord]
	path := fmt.Sprintf("/zones/%s/dns_records", zoneID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, resp.err("list records")
	}

	var records []models.DNSRecord
	for _, r := range resp.Result {
		if r.Type != "A" {
			continue
		}
		records = append(records, models.DNSRecord{ID: r.ID, Name: r.Name, Content: r.Content, Proxied: r.Proxied})
	}
	return records, nil
}

// CreateRecord creates a new A-record.
func (c *CloudflareClient) CreateRecord(ctx context.Context, zoneID string, rec models.DNSRecord) error {
	body := cfRecord{Type: "A", Name: rec.Name, Content: rec.Content, TTL: 1, Proxied: rec.Proxied}
	var resp cfResponse[cfRecord]
	path := fmt.Sprintf("/zones/%s/dns_records", zoneID)
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return resp.err("create record " + rec.Name)
	}
	return nil
}

// UpdateRecord updates an existing A-record.
func (c *CloudflareClient) UpdateRecord(ctx context.Context, zoneID, recordID string, rec models.DNSRecord) error {
	body := cfRecord{Type: "A", Name: rec.Name, Content: rec.Content, TTL: 1, Proxied: rec.Proxied}
	var resp cfResponse[cfRecord]
	path := fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, recordID)
	if err := c.do(ctx, http.MethodPut, path, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return resp.err("update record " + rec.Name)
	}
	return nil
}

// DeleteRecord deletes an A-record.
func (c *CloudflareClient) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	var resp cfResponse[map[string]any]
	path := fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, recordID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return resp.err("delete record " + recordID)
	}
	return nil
}

var _ interfaces.DNSProvider = (*CloudflareClient)(nil)
