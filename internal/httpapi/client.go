// Package httpapi implements timetable.Backend over the school platform's
// REST API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// RequestIDHeader is sent with every request so server logs can be matched
// to console logs.
const RequestIDHeader = "X-Request-ID"

const defaultTimeout = 15 * time.Second

// Responses larger than this are rejected.
const maxBodyBytes = 8 << 20

// Client talks to the REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     *zap.Logger
}

var _ timetable.Backend = (*Client)(nil)
var _ timetable.ResourceLister = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ============================================================================
// Backend
// ============================================================================

// ListPeriods fetches the period catalog.
func (c *Client) ListPeriods(ctx context.Context) ([]timetable.Period, error) {
	var periods []timetable.Period
	if err := c.do(ctx, "fetch periods", http.MethodGet, "/api/periods", nil, listInto(&periods, "periods")); err != nil {
		return nil, err
	}
	return periods, nil
}

// ListResources fetches teachers, courses, rooms and classes.
func (c *Client) ListResources(ctx context.Context) (*timetable.Resources, error) {
	var res timetable.Resources
	if err := c.do(ctx, "fetch resources", http.MethodGet, "/api/resources", nil, objectInto(&res)); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetTimetable fetches every slot of a class.
func (c *Client) GetTimetable(ctx context.Context, classID int64) ([]timetable.Slot, error) {
	var slots []timetable.Slot
	path := "/api/classes/" + strconv.FormatInt(classID, 10) + "/timetable"
	if err := c.do(ctx, "fetch timetable", http.MethodGet, path, nil, listInto(&slots, "slots")); err != nil {
		return nil, err
	}
	return slots, nil
}

// ReplaceSlots submits the whole timetable of a class.
func (c *Client) ReplaceSlots(ctx context.Context, classID int64, payload []timetable.SlotPayload) ([]timetable.Slot, error) {
	if payload == nil {
		payload = []timetable.SlotPayload{}
	}
	var slots []timetable.Slot
	path := "/api/classes/" + strconv.FormatInt(classID, 10) + "/timetable/slots"
	if err := c.do(ctx, "save timetable", http.MethodPut, path, payload, listInto(&slots, "slots")); err != nil {
		return nil, err
	}
	return slots, nil
}

// CreateSlot creates one slot.
func (c *Client) CreateSlot(ctx context.Context, p timetable.SlotPayload) (timetable.Slot, error) {
	var slot timetable.Slot
	if err := c.do(ctx, "create slot", http.MethodPost, "/api/slots", p, objectInto(&slot)); err != nil {
		return timetable.Slot{}, err
	}
	return slot, nil
}

// UpdateSlot rewrites slot id.
func (c *Client) UpdateSlot(ctx context.Context, id int64, p timetable.SlotPayload) (timetable.Slot, error) {
	var slot timetable.Slot
	path := "/api/slots/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, "update slot", http.MethodPut, path, p, objectInto(&slot)); err != nil {
		return timetable.Slot{}, err
	}
	return slot, nil
}

// DeleteSlot removes slot id.
func (c *Client) DeleteSlot(ctx context.Context, id int64) error {
	path := "/api/slots/" + strconv.FormatInt(id, 10)
	return c.do(ctx, "delete slot", http.MethodDelete, path, nil, nil)
}

// Optimize triggers regeneration of a class timetable. The response carries
// no payload; callers re-fetch the timetable afterwards.
func (c *Client) Optimize(ctx context.Context, classID int64) error {
	path := "/api/classes/" + strconv.FormatInt(classID, 10) + "/optimize"
	return c.do(ctx, "optimize", http.MethodPost, path, nil, nil)
}

// ============================================================================
// Transport
// ============================================================================

// decodeFunc decodes a successful response body.
type decodeFunc func(body []byte) error

func (c *Client) do(ctx context.Context, op, method, path string, in any, decode decodeFunc) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("op", op),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return &timetable.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &timetable.NetworkError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.log.Debug("request done",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, data)
	}
	if decode == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decode(data); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

type errorBody struct {
	Error    string                   `json:"error"`
	Message  string                   `json:"message"`
	Conflict *timetable.ConflictError `json:"conflict"`
}

// statusError maps a non-2xx response onto the engine error taxonomy.
func statusError(op string, status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)

	msg := eb.Message
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusConflict:
		if eb.Conflict != nil {
			if eb.Conflict.Message == "" {
				eb.Conflict.Message = eb.Message
			}
			return eb.Conflict
		}
		return &timetable.ConflictError{Message: msg}
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, msg, timetable.ErrNotFound)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &timetable.ValidationError{Reason: msg}
	case status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return &timetable.NetworkError{Op: op, Err: fmt.Errorf("server answered %d: %s", status, msg)}
	default:
		return fmt.Errorf("%s: server answered %d: %s", op, status, msg)
	}
}

// listInto decodes a JSON array either bare, wrapped under key, or wrapped
// under "data".
func listInto[T any](out *[]T, key string) decodeFunc {
	return func(body []byte) error {
		body = bytes.TrimSpace(body)
		if len(body) > 0 && body[0] == '[' {
			return json.Unmarshal(body, out)
		}
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return err
		}
		for _, k := range []string{key, "data"} {
			raw, ok := envelope[k]
			if !ok {
				continue
			}
			raw = bytes.TrimSpace(raw)
			if len(raw) > 0 && raw[0] == '{' {
				// {"data": {"slots": [...]}}
				return listInto(out, key)(raw)
			}
			return json.Unmarshal(raw, out)
		}
		return errors.New("no " + key + " in response")
	}
}

// objectInto decodes an object, unwrapping a {"data": {...}} envelope.
func objectInto[T any](out *T) decodeFunc {
	return func(body []byte) error {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
			body = envelope.Data
		}
		return json.Unmarshal(body, out)
	}
}
