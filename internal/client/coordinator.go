package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/redmonkez12/dichoptic/internal/logging"
)

const refreshPath = "/auth/refresh"

// Request describes one API call. It is kept whole so it can be queued and replayed.
type Request struct {
	Method        string
	Path          string
	Body          []byte
	Authenticated bool

	retried bool
}

// Response is a 2xx API response
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type outcome struct {
	resp *Response
	err  error
}

// pending is a request parked while a refresh is in flight
type pending struct {
	ctx  context.Context
	req  Request
	done chan outcome
}

// Coordinator sends API requests and recovers from expired access tokens.
// At most one refresh runs at a time; requests that fail with 401 while it runs
// wait in a FIFO queue and are replayed by the refreshing goroutine.
type Coordinator struct {
	baseURL string
	http    *http.Client
	session *Session
	events  *Events
	logger  *logging.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []*pending
}

func NewCoordinator(baseURL string, httpClient *http.Client, session *Session, events *Events, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
		events:  events,
		logger:  logger,
	}
}

// Do sends req. Non-2xx responses come back as *APIError.
func (c *Coordinator) Do(ctx context.Context, req Request) (*Response, error) {
	token := c.bearer(req)

	status, body, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && req.Authenticated && !req.retried {
		return c.recover(ctx, req, token)
	}

	return finish(status, body)
}

func (c *Coordinator) bearer(req Request) string {
	if !req.Authenticated {
		return ""
	}
	return c.session.AccessToken()
}

// recover handles a first 401 for an authenticated request sent with sentWith
func (c *Coordinator) recover(ctx context.Context, req Request, sentWith string) (*Response, error) {
	req.retried = true

	c.mu.Lock()

	if current := c.session.AccessToken(); current != "" && current != sentWith {
		// someone refreshed after this request went out
		c.mu.Unlock()
		return c.Do(ctx, req)
	}

	if c.refreshing {
		p := &pending{ctx: ctx, req: req, done: make(chan outcome, 1)}
		c.queue = append(c.queue, p)
		c.mu.Unlock()

		select {
		case o := <-p.done:
			return o.resp, o.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.refreshing = true
	c.mu.Unlock()

	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		err := fmt.Errorf("%w: no refresh token", ErrSessionEnded)
		c.end(ReasonNoRefreshToken, err)
		return nil, err
	}

	// queued callers depend on this refresh, so it outlives the caller that started it
	access, err := c.refresh(context.WithoutCancel(ctx), refreshToken)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSessionEnded, err)
		c.end(ReasonRefreshFailed, err)
		return nil, err
	}

	if err := c.session.SetAccessToken(access); err != nil {
		c.logger.Warn("failed to persist refreshed access token", "error", err)
	}

	queued := c.drain()
	c.logger.Debug("access token refreshed", "queued", len(queued))

	resp, err := c.Do(ctx, req)
	for _, p := range queued {
		r, e := c.Do(p.ctx, p.req)
		p.done <- outcome{resp: r, err: e}
	}
	return resp, err
}

// end tears the session down and rejects everything that was waiting
func (c *Coordinator) end(reason EndReason, err error) {
	if clearErr := c.session.Clear(); clearErr != nil {
		c.logger.Warn("failed to clear session", "error", clearErr)
	}

	for _, p := range c.drain() {
		p.done <- outcome{err: err}
	}

	c.logger.Info("session ended", "reason", string(reason))
	c.events.Publish(SessionEnded{Reason: reason, Err: err})
}

// drain takes the queue and clears the in-flight flag
func (c *Coordinator) drain() []*pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	queued := c.queue
	c.queue = nil
	c.refreshing = false
	return queued
}

func (c *Coordinator) refresh(ctx context.Context, refreshToken string) (string, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", err)
	}

	status, raw, err := c.send(ctx, Request{Method: http.MethodPost, Path: refreshPath, Body: body}, "")
	if err != nil {
		return "", err
	}

	resp, err := finish(status, raw)
	if err != nil {
		return "", err
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := resp.Decode(&tokens); err != nil {
		return "", err
	}
	if tokens.AccessToken == "" {
		return "", errors.New("refresh response has no access token")
	}
	return tokens.AccessToken, nil
}

func (c *Coordinator) send(ctx context.Context, req Request, token string) (int, []byte, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func finish(status int, body []byte) (*Response, error) {
	if status >= 200 && status < 300 {
		return &Response{Status: status, Body: body}, nil
	}

	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Code = payload.Code
	}
	return nil, apiErr
}
