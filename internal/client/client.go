// Package client talks to the intake API. It is the wizard's submitter and
// the reviewer's data source.
package client

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

	"github.com/rs/zerolog"

	"github.com/mrsinham/oeukintake/internal/api"
	"github.com/mrsinham/oeukintake/internal/engine"
	"github.com/mrsinham/oeukintake/internal/record"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap maps 404 onto record.ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return record.ErrNotFound
	}
	return nil
}

type Client struct {
	base   string
	http   *http.Client
	logger zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts the answers. Failures to reach the server wrap
// engine.ErrTransport; a response with an error status does not.
func (c *Client) Submit(ctx context.Context, s engine.Submission) (engine.Receipt, error) {
	var out api.CreateResponse
	headers := map[string]string{}
	if s.Key != "" {
		headers[api.HeaderIdempotencyKey] = s.Key
	}
	status, err := c.send(ctx, http.MethodPost, api.PathRecords, headers, s.Answers, &out)
	if err != nil {
		return engine.Receipt{}, err
	}
	if !out.Success || out.ID <= 0 {
		msg := out.Error
		if msg == "" {
			msg = "submission not accepted"
		}
		c.logger.Warn().Str("error", msg).Int64("id", out.ID).Msg("questionnaire rejected")
		return engine.Receipt{}, &APIError{Status: status, Message: msg}
	}
	c.logger.Info().Int64("id", out.ID).Msg("questionnaire submitted")
	return engine.Receipt{ID: out.ID, Message: out.Message}, nil
}

// Authenticate reports whether the reviewer password was accepted.
func (c *Client) Authenticate(ctx context.Context, password string) (bool, error) {
	var out api.AuthResponse
	err := c.do(ctx, http.MethodPost, api.PathAuth, nil, api.AuthRequest{Password: password}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return out.Authenticated, nil
}

func (c *Client) List(ctx context.Context) ([]record.Summary, error) {
	var out api.ListResponse
	if err := c.do(ctx, http.MethodGet, api.PathRecords, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*record.Record, error) {
	var out api.GetResponse
	if err := c.do(ctx, http.MethodGet, recordPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Record == nil {
		return nil, record.ErrNotFound
	}
	return out.Record, nil
}

func (c *Client) Review(ctx context.Context, id int64, comments string) error {
	return c.do(ctx, http.MethodPut, recordPath(id)+api.PathComments, nil,
		api.CommentsRequest{PhysicianComments: comments}, &api.MessageResponse{})
}

func recordPath(id int64) string {
	return api.PathRecords + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, in, out any) error {
	_, err := c.send(ctx, method, path, headers, in, out)
	return err
}

// send performs one JSON round trip and returns the response status.
func (c *Client) send(ctx context.Context, method, path string, headers map[string]string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", engine.ErrTransport, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return 0, fmt.Errorf("%w: %v", engine.ErrTransport, err)
	}
	defer resp.Body.Close()
	c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).Msg("request")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read response: %v", engine.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e api.ErrorResponse
		_ = json.Unmarshal(data, &e)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
