package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

// ErrStatus wraps every non-2xx answer of the analyze service
var ErrStatus = errors.New("analyze service error")

const (
	analyzePath = "/api/analyze"
	healthPath  = "/api/health"

	apiKeyHeader = "X-API-Key"
	maxBodyBytes = 4 << 20
)

// Client posts analyze requests to a remote service.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *logrus.Entry
}

func NewClient(baseURL, apiKey string, opts ...func(*Client)) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

func WithLogger(l *logrus.Entry) func(*Client) {
	return func(c *Client) {
		if l != nil {
			c.Logger = l
		}
	}
}

func (c *Client) Analyze(ctx context.Context, req leadgen.AnalyzeRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.APIKey)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	c.Logger.WithFields(logrus.Fields{
		"task":     req.Task,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("analyze call")

	if resp.StatusCode/100 != 2 {
		return nil, statusError(resp.StatusCode, b)
	}
	return Unwrap(b)
}

// Health reports whether the service answers its health check
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return statusError(resp.StatusCode, b)
	}
	return nil
}

// Unwrap pulls the insights out of the service's answer: the `insights` field when it holds
// something, the whole body otherwise.
func Unwrap(body []byte) (json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		// not an object; a list or a plain value is the insights itself
		if !json.Valid(body) {
			return nil, fmt.Errorf("analyze service returned invalid json: %w", err)
		}
		return json.RawMessage(body), nil
	}

	if in, ok := env["insights"]; ok && truthy(in) {
		return in, nil
	}
	return json.RawMessage(body), nil
}

func truthy(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

func statusError(status int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return fmt.Errorf("%w: %s", ErrStatus, e.Error)
	}
	return fmt.Errorf("%w: status %d", ErrStatus, status)
}
