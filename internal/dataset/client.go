package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	"github.com/okian/mentorpulse/internal/domain/types"
	"github.com/okian/mentorpulse/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// Ack is the service's answer to an ingestion request.
type Ack struct {
	BatchID   string `json:"-"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Students  int    `json:"students"`
}

// Client talks to a running indicator service.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.Get().Named("dataset-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks that the service answers its liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// Submit posts ds as one ingestion batch. An empty batchID gets a fresh
// uuid. A duplicate batch is not an error; Ack.Duplicate reports it.
func (c *Client) Submit(ctx context.Context, batchID string, ds *model.Dataset) (Ack, error) {
	if ds == nil {
		return Ack{}, fmt.Errorf("%w: nil dataset", ErrInvalidDataset)
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}
	body := struct {
		BatchID string `json:"batch_id"`
		model.Dataset
	}{BatchID: batchID, Dataset: *ds}

	payload, err := json.Marshal(body)
	if err != nil {
		return Ack{}, fmt.Errorf("marshal batch: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/records", payload)
	if err != nil {
		return Ack{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		var ack Ack
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return Ack{}, fmt.Errorf("decode ack: %w", err)
		}
		ack.BatchID = batchID
		c.log.Info(ctx, "batch submitted",
			logger.String("batch_id", batchID),
			logger.String("status", ack.Status),
			logger.Int("students", ack.Students))
		return ack, nil
	default:
		return Ack{}, statusError(resp)
	}
}

// Leaderboard fetches the top limit students.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]types.RankEntry, error) {
	var entries []types.RankEntry
	if err := c.getJSON(ctx, "/leaderboard?limit="+strconv.Itoa(limit), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Dashboard fetches the global dashboard.
func (c *Client) Dashboard(ctx context.Context) (indicators.GlobalDashboard, error) {
	var d indicators.GlobalDashboard
	err := c.getJSON(ctx, "/dashboard", &d)
	return d, err
}

// Stats fetches the service statistics.
func (c *Client) Stats(ctx context.Context) (types.Stats, error) {
	var s types.Stats
	err := c.getJSON(ctx, "/stats", &s)
	return s, err
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// statusError reads the service error body into the returned error.
func statusError(resp *http.Response) error {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &e) == nil && e.Code != "" {
		return fmt.Errorf("%w: %d %s: %s", ErrUnexpectedStatus, resp.StatusCode, e.Code, e.Message)
	}
	return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
}
