package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"salescrm/internal/apperr"
	"salescrm/internal/models"
)

// Gateway is everything the board service needs from the CRM REST API.
type Gateway interface {
	ListLeads(ctx context.Context, assignedTo *int, limit int) (models.LeadList, error)
	UpdateStage(ctx context.Context, leadID int, stage models.Stage) (*models.Lead, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type ClientOptions struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(opts ClientOptions) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// ListLeads calls GET /leads. A nil assignedTo lists every lead the token can see.
func (c *Client) ListLeads(ctx context.Context, assignedTo *int, limit int) (models.LeadList, error) {
	q := url.Values{}
	if assignedTo != nil {
		q.Set("assignedTo", strconv.Itoa(*assignedTo))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/leads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.LeadList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return models.LeadList{}, fmt.Errorf("list leads: %w", err)
	}
	if out.Leads == nil {
		out.Leads = []models.Lead{}
	}
	return out, nil
}

// UpdateStage calls PUT /leads/{id}/stage. An empty 2xx body yields a nil lead.
func (c *Client) UpdateStage(ctx context.Context, leadID int, stage models.Stage) (*models.Lead, error) {
	body := map[string]models.Stage{"stage": stage}
	var out *models.Lead
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/leads/%d/stage", leadID), body, &out); err != nil {
		return nil, fmt.Errorf("update stage of lead %d: %w", leadID, err)
	}
	return out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// StatusError is a non-2xx answer of the CRM API.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
	kind   error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error { return e.kind }

// kindForStatus maps an HTTP status to the error kind the coordinator reports.
func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.ErrAuthorization
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrConflict
	}
	return apperr.ErrRemote
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrNetwork, err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", apperr.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(raw)),
			kind:   kindForStatus(resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperr.ErrRemote, err)
	}
	return nil
}
