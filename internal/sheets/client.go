package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every remote call. The original deployment relied on
// the browser's fetch defaults and could hang forever; a hard timeout here
// is deliberate.
const DefaultTimeout = 15 * time.Second

// Client talks to the spreadsheet endpoint. Reads are GETs with an action
// query parameter; writes are POSTs with an action field in the JSON body.
// Every response is a {success: bool, ...} envelope.
type Client struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

// NewClient creates a client for the given endpoint URL.
func NewClient(endpoint string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (e envelope) err() error {
	if e.Success {
		return nil
	}
	if e.Error == "" {
		return errors.New("remote reported failure")
	}
	return errors.New(e.Error)
}

// GetStudents reads the entire students table.
func (c *Client) GetStudents(ctx context.Context) ([]Row, error) {
	var resp struct {
		envelope
		Students []Row `json:"students"`
	}
	if err := c.get(ctx, "getStudents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Students, resp.err()
}

// GetSchedule reads the class-definition table (the richer of the two
// historical class layouts).
func (c *Client) GetSchedule(ctx context.Context) ([]Row, error) {
	var resp struct {
		envelope
		Schedule []Row `json:"schedule"`
	}
	if err := c.get(ctx, "getSchedule", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Schedule, resp.err()
}

// GetClasses reads the legacy name-only class listing.
func (c *Client) GetClasses(ctx context.Context) ([]string, error) {
	var resp struct {
		envelope
		Classes []string `json:"classes"`
	}
	if err := c.get(ctx, "getClasses", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Classes, resp.err()
}

// GetAttendance reads attendance rows, optionally filtered by date and
// class name.
func (c *Client) GetAttendance(ctx context.Context, date, className string) ([]Row, error) {
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}
	if className != "" {
		params.Set("className", className)
	}
	var resp struct {
		envelope
		Attendance []Row `json:"attendance"`
	}
	if err := c.get(ctx, "getAttendance", params, &resp); err != nil {
		return nil, err
	}
	return resp.Attendance, resp.err()
}

// SyncStudents replaces the remote students table wholesale.
func (c *Client) SyncStudents(ctx context.Context, rows []Row) error {
	var resp envelope
	if err := c.post(ctx, "syncStudents", map[string]any{"students": rows}, &resp); err != nil {
		return err
	}
	return resp.err()
}

// SyncSchedule replaces the remote class-definition table wholesale.
func (c *Client) SyncSchedule(ctx context.Context, rows []Row) error {
	var resp envelope
	if err := c.post(ctx, "syncSchedule", map[string]any{"schedule": rows}, &resp); err != nil {
		return err
	}
	return resp.err()
}

// SyncAttendance replaces the remote attendance table wholesale.
func (c *Client) SyncAttendance(ctx context.Context, rows []Row) error {
	var resp envelope
	if err := c.post(ctx, "syncAttendance", map[string]any{"attendance": rows}, &resp); err != nil {
		return err
	}
	return resp.err()
}

// AppendStudent appends a single row to the remote students table without
// clearing it.
func (c *Client) AppendStudent(ctx context.Context, row Row) error {
	var resp envelope
	if err := c.post(ctx, "appendStudent", map[string]any{"student": row}, &resp); err != nil {
		return err
	}
	return resp.err()
}

func (c *Client) get(ctx context.Context, action string, params url.Values, out any) error {
	if c.endpoint == "" {
		return errors.New("remote endpoint not configured")
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("bad endpoint: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, action, out)
}

func (c *Client) post(ctx context.Context, action string, body map[string]any, out any) error {
	if c.endpoint == "" {
		return errors.New("remote endpoint not configured")
	}
	payload := map[string]any{"action": action}
	for k, v := range body {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, action, out)
}

func (c *Client) do(req *http.Request, action string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("action", action).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("remote call")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: remote returned HTTP %d", action, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	return nil
}
