// Package remote proxies entity collections to a hosted record API. Each
// collection maps to one remote table whose field names carry a "_c" suffix.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const projectHeader = "X-Project-Id"

// ErrRecordNotFound is returned by GetRecordByID when the API answers 404.
var ErrRecordNotFound = errors.New("remote record not found")

type Config struct {
	BaseURL   string
	ProjectID string
	PublicKey string
	Timeout   time.Duration
}

// Client speaks the record API's JSON protocol. Every call answers with a
// Response whose Success flag must be checked alongside the HTTP status.
type Client struct {
	baseURL   string
	projectID string
	publicKey string
	http      *http.Client
}

type FieldRef struct {
	Name string `json:"Name"`
}

type Field struct {
	Field FieldRef `json:"field"`
}

type FetchParams struct {
	Fields []Field         `json:"fields"`
	Where  []WhereClause   `json:"where,omitempty"`
	Paging *PagingSettings `json:"pagingInfo,omitempty"`
}

type WhereClause struct {
	FieldName string `json:"FieldName"`
	Operator  string `json:"Operator"`
	Values    []any  `json:"Values"`
}

type PagingSettings struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Results []Result        `json:"results,omitempty"`
}

// Failed returns the first failing per-record result, if any.
func (r *Response) Failed() *Result {
	for i := range r.Results {
		if !r.Results[i].Success {
			return &r.Results[i]
		}
	}
	return nil
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		projectID: cfg.ProjectID,
		publicKey: cfg.PublicKey,
		http:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/projects/%s/tables/%s/records", c.baseURL, c.projectID, table)
}

func (c *Client) FetchRecords(ctx context.Context, table string, params FetchParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tableURL(table)+"/fetch", params)
}

func (c *Client) GetRecordByID(ctx context.Context, table string, id int64, params FetchParams) (*Response, error) {
	url := c.tableURL(table) + "/" + strconv.FormatInt(id, 10) + "/fetch"
	return c.do(ctx, http.MethodPost, url, params)
}

func (c *Client) CreateRecord(ctx context.Context, table string, records []map[string]any) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tableURL(table), map[string]any{"records": records})
}

// UpdateRecord sends full records; each must carry its "Id".
func (c *Client) UpdateRecord(ctx context.Context, table string, records []map[string]any) (*Response, error) {
	return c.do(ctx, http.MethodPut, c.tableURL(table), map[string]any{"records": records})
}

func (c *Client) DeleteRecord(ctx context.Context, table string, ids []int64) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.tableURL(table), map[string]any{"RecordIds": ids})
}

// Ping checks that the API answers for the configured project.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/projects/"+c.projectID, nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote record API unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("remote record API unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.publicKey)
	req.Header.Set(projectHeader, c.projectID)
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRecordNotFound
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &out, fmt.Errorf("remote %s %s: %s", method, url, msg)
	}
	return &out, nil
}
