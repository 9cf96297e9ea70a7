package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
)

// Client talks to the data API the way a browser client would, keyed
// with an ops API key. The reconciler never touches the blob store
// directly; every read and write goes through the gateway so the same
// authorization and audit path applies.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg config.SyncConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(cfg.GatewayURL), "/"),
		apiKey:  strings.TrimSpace(cfg.GatewayKey),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// GetDocument fetches a document. A 404 returns (nil, false, nil) so
// callers can start from empty.
func (c *Client) GetDocument(ctx context.Context, name string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.documentURL(name), nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("gateway get %s: status %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(body), true, nil
}

// PutDocument replaces the whole document.
func (c *Client) PutDocument(ctx context.Context, name string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.documentURL(name), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("gateway put %s: status %d", name, resp.StatusCode)
	}
	return nil
}

func (c *Client) documentURL(name string) string {
	return c.baseURL + "/api/data/" + name
}
