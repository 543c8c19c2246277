// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package backend implements the HTTP client for the DARK AI backend.
//
// The backend exposes a small REST surface under /api: chat, chat history,
// ElevenLabs configuration, and speech synthesis. All responses are JSON;
// errors arrive as {"detail": "..."} with a non-2xx status.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/AzazMehtiyev/DARK-AI/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the default timeout for API requests. Chat replies
	// route through an LLM, so this is generous.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the default number of attempts for idempotent
	// requests.
	DefaultMaxRetries = 3

	// DefaultHistoryLimit is how many messages the history endpoint returns.
	DefaultHistoryLimit = 50

	// MaxResponseSize is the maximum allowed response body size. TTS audio
	// comes back base64-inlined, so the cap has to fit a full clip.
	MaxResponseSize = 32 * 1024 * 1024 // 32MB
)

// Shared HTTP client with connection pooling for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrSpeechNotConfigured indicates the backend has no ElevenLabs key yet.
	ErrSpeechNotConfigured = errors.New("speech not configured")

	// ErrEmptyReply indicates the backend returned a reply with no text.
	ErrEmptyReply = errors.New("empty reply from backend")
)

// APIError is a structured error returned by the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}

// apiErrorResponse matches the backend's error body.
type apiErrorResponse struct {
	Detail string `json:"detail"`
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Message  string `json:"message"`
	HasAudio bool   `json:"has_audio"`
	AudioURL string `json:"audio_url,omitempty"`
}

type ttsRequest struct {
	Text string `json:"text"`
}

type ttsResponse struct {
	AudioURL string `json:"audio_url"`
	Text     string `json:"text"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is the DARK AI backend API client.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
	log        *logrus.Logger
}

// NewClient creates a backend client for the given base URL and session.
func NewClient(baseURL, sessionID string, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		sessionID:  sessionID,
		httpClient: sharedHTTPClient,
		maxRetries: DefaultMaxRetries,
		// Keeps a runaway UI loop from hammering the backend.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		log:     log,
	}
}

// WithHTTPClient overrides the HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithMaxRetries overrides the retry count for idempotent requests.
func (c *Client) WithMaxRetries(n int) *Client {
	if n > 0 {
		c.maxRetries = n
	}
	return c
}

// WithTimeout overrides the per-request timeout, keeping the shared
// pooled transport.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient = &http.Client{
			Transport: sharedHTTPClient.Transport,
			Timeout:   d,
		}
	}
	return c
}

// Timeout returns the per-request timeout in effect.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// SessionID returns the conversation identifier this client is bound to.
func (c *Client) SessionID() string {
	return c.sessionID
}

// =============================================================================
// API OPERATIONS
// =============================================================================

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.getWithRetry(ctx, c.baseURL+"/api/health"); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// History fetches the stored conversation and returns it in display order,
// oldest first. The backend sends the newest messages first.
func (c *Client) History(ctx context.Context) ([]*model.Message, error) {
	u := fmt.Sprintf("%s/api/chat/history?session_id=%s&limit=%d",
		c.baseURL, url.QueryEscape(c.sessionID), DefaultHistoryLimit)

	body, err := c.getWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}

	var wire []*model.Message
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	c.log.WithField("count", len(wire)).Debug("loaded chat history")
	return model.NormalizeHistory(wire), nil
}

// Chat sends a user message and returns the agent's reply text.
//
// Not retried: the backend stores the user message before generating a
// reply, so a retry would duplicate it.
func (c *Client) Chat(ctx context.Context, text string) (string, error) {
	reqBody := chatRequest{Message: text, SessionID: c.sessionID}

	var resp chatResponse
	if err := c.postJSON(ctx, c.baseURL+"/api/chat", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "", ErrEmptyReply
	}
	return resp.Message, nil
}

// ConfigureSpeech hands the ElevenLabs API key to the backend. The key
// travels as a query parameter, matching the backend's signature.
func (c *Client) ConfigureSpeech(ctx context.Context, apiKey string) error {
	u := fmt.Sprintf("%s/api/config/elevenlabs?api_key=%s",
		c.baseURL, url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	_, err = c.do(req)
	if err != nil {
		return err
	}
	c.log.Info("speech configured on backend")
	return nil
}

// Synthesize asks the backend to generate speech for the given text and
// returns the audio locator, a data: URL carrying base64 MP3.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	var resp ttsResponse
	err := c.postJSON(ctx, c.baseURL+"/api/tts", ttsRequest{Text: text}, &resp)
	if err != nil {
		var apiErr *APIError
		// The backend answers 400 when no ElevenLabs key is set.
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return "", fmt.Errorf("%w: %s", ErrSpeechNotConfigured, apiErr.Detail)
		}
		return "", err
	}
	if resp.AudioURL == "" {
		return "", ErrEmptyReply
	}
	return resp.AudioURL, nil
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

// getWithRetry performs a GET with retry logic and exponential backoff.
// Only used for idempotent requests.
func (c *Client) getWithRetry(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Client-side errors will not get better on retry.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return nil, err
		}

		c.log.WithError(err).WithField("attempt", attempt+1).Warn("request failed, retrying")

		// Exponential backoff: 1s, 2s, 4s
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<attempt) * time.Second):
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// postJSON performs a single JSON POST and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, requestURL string, in, out any) error {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// do executes a single request, enforcing the rate limit and response
// size cap, and converting error statuses to typed errors.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Debug("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// readResponse reads a response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", int64(MaxResponseSize))
	}
	return body, nil
}

// parseAPIError converts an error response to an *APIError, extracting
// the backend's detail message when the body is well-formed.
func parseAPIError(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		return &APIError{Status: statusCode, Detail: apiErr.Detail}
	}
	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200] + "... (" + strconv.Itoa(len(body)) + " bytes)"
	}
	return &APIError{Status: statusCode, Detail: detail}
}
