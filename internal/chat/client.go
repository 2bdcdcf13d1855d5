// Package chat is the client for the conversational backend.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sweeney/moodfuse/internal/logic"
)

// Default timeouts for backend requests.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	maxErrorBody          = 512
)

// Request is the body of POST /chat.
type Request struct {
	Message      string            `json:"message"`
	UserName     string            `json:"userName"`
	MoodHistory  []logic.MoodEntry `json:"moodHistory"`
	MessageCount int               `json:"messageCount"`
	CrisisLevel  logic.CrisisLevel `json:"crisisLevel"`
}

// Response is a successful backend reply.
type Response struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	IsCrisis bool   `json:"is_crisis"`

	// ResponseTime is measured by the client.
	ResponseTime time.Duration `json:"-"`
}

// Client posts user messages to the backend.
type Client struct {
	baseURL   string
	sessionID string
	timeout   time.Duration
	http      *http.Client
}

// NewClient creates a client for baseURL. Every request carries sessionID in
// the X-Session-ID header and is abandoned after timeout.
func NewClient(baseURL, sessionID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		timeout:   timeout,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DefaultConnectTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// SessionID returns the session identifier sent with every request.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Send posts req and waits for the reply. Cancelling ctx aborts the request
// with ErrCanceled; exceeding the client timeout yields ErrTimeout.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Session-ID", c.sessionID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Response{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return Response{}, classifyTransport(ctx, err)
		}
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	out.ResponseTime = time.Since(start)
	return out, nil
}

func classifyTransport(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}
