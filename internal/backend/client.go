// Package backend is the REST client of the Rederly backend API.
package backend

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

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rederly/client/internal/logging"
	"rederly/client/internal/telemetry"
)

const (
	defaultTimeout = 15 * time.Second
	// SessionCookie is the cookie carrying the backend session token.
	SessionCookie = "sessionToken"
	maxBody       = 8 << 20
)

// TokenSource returns the session token to send with authenticated requests; empty means none.
type TokenSource func(ctx context.Context) string

// Client calls the backend API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	tokens     TokenSource
	logger     logrus.FieldLogger
}

// NewClient returns a client for baseURL (e.g. https://app.rederly.com/backend-api).
// Requests are traced with otelhttp and reported to emitter (may be nil). tokens may be nil.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, emitter telemetry.EventEmitter, logger logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := logging.Component(logger, "backend")
	transport := otelhttp.NewTransport(
		NewTelemetryTransport(http.DefaultTransport, emitter, log),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout, Transport: transport},
		tokens:     tokens,
		logger:     log,
	}
}

// Login posts credentials. On 200 the result carries the session token from the response cookie.
// 401 and 403 return *AuthenticationError.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	resp, env, err := c.do(ctx, http.MethodPost, "/users/login", nil, creds, false)
	if err != nil {
		return nil, err
	}
	var out LoginResult
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("backend: decode login: %w", err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie && ck.Value != "" {
			out.SessionToken = ck.Value
		}
	}
	if out.SessionToken == "" {
		return nil, errors.New("backend: login response carried no session token")
	}
	out.Message = env.Msg
	if out.Message == "" {
		out.Message = env.Message
	}
	return &out, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil, true)
	return err
}

// GetTopic fetches topic id with the overrides of userID.
func (c *Client) GetTopic(ctx context.Context, id, userID int) (*Topic, error) {
	var out Topic
	if err := c.getData(ctx, "/courses/topic/"+strconv.Itoa(id), userID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetQuestion fetches question id with the overrides of userID.
func (c *Client) GetQuestion(ctx context.Context, id, userID int) (*Question, error) {
	var out Question
	if err := c.getData(ctx, "/courses/question/"+strconv.Itoa(id), userID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtendTopic submits a topic extension.
func (c *Client) ExtendTopic(ctx context.Context, ext TopicExtension) error {
	_, _, err := c.do(ctx, http.MethodPut, "/courses/topic/extend", nil, ext, true)
	return err
}

// ExtendQuestion submits a question extension.
func (c *Client) ExtendQuestion(ctx context.Context, ext QuestionExtension) error {
	_, _, err := c.do(ctx, http.MethodPut, "/courses/question/extend", nil, ext, true)
	return err
}

// Ping reports whether the backend answers HTTP at all. Any response status counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "GET /", Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	return resp.Body.Close()
}

func (c *Client) getData(ctx context.Context, path string, userID int, out interface{}) error {
	q := url.Values{"userId": {strconv.Itoa(userID)}}
	_, env, err := c.do(ctx, http.MethodGet, path, q, nil, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, authed bool) (*http.Response, *envelope, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.tokens != nil {
		if tok := c.tokens(ctx); tok != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	env := &envelope{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, env); err != nil && resp.StatusCode < 300 {
			return nil, nil, fmt.Errorf("backend: decode %s: %w", path, err)
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil, &AuthenticationError{StatusCode: resp.StatusCode, Message: env.Message}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := env.Message
		if msg == "" && !json.Valid(raw) {
			msg = strings.TrimSpace(string(raw))
		}
		c.logger.WithFields(logrus.Fields{"path": path, "status": resp.StatusCode}).Debug("backend request failed")
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, env, nil
}
