package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"calldash/internal/config"
)

const listCallsPath = "/v2/list-calls"

// maxPageLimit is the provider's documented page-size ceiling.
const maxPageLimit = 1000

// RetellClient fetches call batches from the Retell-style HTTP API.
// Each attempt is bounded by the configured request timeout; retry policy
// lives in the sync orchestrator, not here.
type RetellClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewRetellClient(cfg config.ProviderConfig) (*RetellClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider: API key is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RetellClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *RetellClient) Name() string { return "retell" }

type listCallsBody struct {
	Limit          int             `json:"limit"`
	FilterCriteria *filterCriteria `json:"filter_criteria,omitempty"`
}

type filterCriteria struct {
	AgentID []string `json:"agent_id,omitempty"`
}

// ListCalls performs one batch-listing request. A non-2xx response is an
// error; the caller decides whether it is worth retrying.
func (c *RetellClient) ListCalls(ctx context.Context, req ListCallsRequest) ([]Record, error) {
	limit := req.Limit
	if limit <= 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}

	body := listCallsBody{Limit: limit}
	if req.AgentID != "" {
		body.FilterCriteria = &filterCriteria{AgentID: []string{req.AgentID}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("provider: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+listCallsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("provider: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider: list calls: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider: list calls returned %d: %s", resp.StatusCode, string(snippet))
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("provider: decode response: %w", err)
	}
	return records, nil
}
