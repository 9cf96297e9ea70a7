package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
	"github.com/ClemmensSES/SESSalesResources/internal/lmp/domain"
)

// Client fetches aggregated and hourly day-ahead prices from the
// upstream pricing API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg config.SyncConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(cfg.PricingURL), "/"),
		apiKey:  strings.TrimSpace(cfg.PricingKey),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// FetchMonthly returns the monthly averages for every requested zone
// of one ISO.
func (c *Client) FetchMonthly(ctx context.Context, iso string, zones []string) ([]domain.MonthlyRecord, error) {
	query := url.Values{}
	query.Set("iso", iso)
	if len(zones) > 0 {
		query.Set("zones", strings.Join(zones, ","))
	}

	var records []domain.MonthlyRecord
	if err := c.getJSON(ctx, "/monthly", query, &records); err != nil {
		return nil, fmt.Errorf("%w: monthly %s: %v", domain.ErrFetchFailed, iso, err)
	}
	return records, nil
}

// FetchHourly returns the hourly price blocks for one ISO, keyed by
// "YYYY-MM".
func (c *Client) FetchHourly(ctx context.Context, iso string) (map[string][]domain.HourlyPrice, error) {
	query := url.Values{}
	query.Set("iso", iso)

	var blocks map[string][]domain.HourlyPrice
	if err := c.getJSON(ctx, "/hourly", query, &blocks); err != nil {
		return nil, fmt.Errorf("%w: hourly %s: %v", domain.ErrFetchFailed, iso, err)
	}
	return blocks, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
