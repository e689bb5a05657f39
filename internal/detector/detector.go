// Package detector is the HTTP client for the remote image detection service.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

const (
	// FallbackMessage is shown when a failed detect call carries no structured error.
	FallbackMessage = "Detection failed"

	// ClassificationReal is the label the service uses for authentic images.
	ClassificationReal = "Real"

	imageField = "image"

	// maxErrorBody bounds how much of a failure body is read when looking for {error}.
	maxErrorBody = 64 << 10
)

// Image is the payload sent to the detect endpoint.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result is the classification returned by a successful detect call.
type Result struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

// IsReal reports whether the service classified the image as authentic.
func (r Result) IsReal() bool {
	return r.Classification == ClassificationReal
}

type detectResponse struct {
	Result *Result `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIError is a non-2xx answer from the detection service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("detector returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("detector returned %d", e.StatusCode)
}

// ErrMissingResult is returned when a 2xx detect body has no result object.
var ErrMissingResult = errors.New("detector response has no result")

// Options configures a Client.
type Options struct {
	BaseURL       string
	HealthTimeout time.Duration
	DetectTimeout time.Duration
	HTTPClient    *http.Client
}

// Client talks to the detection service.
type Client struct {
	baseURL       string
	healthTimeout time.Duration
	detectTimeout time.Duration
	http          *http.Client
}

// NewClient builds a Client. The base URL must not be empty.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("detector base URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}
	return &Client{
		baseURL:       base,
		healthTimeout: opts.HealthTimeout,
		detectTimeout: opts.DetectTimeout,
		http:          httpClient,
	}, nil
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes GET /health, falling back to GET / for services without a health route.
// Any 2xx answer is healthy.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, c.healthTimeout)
	defer cancel()

	status, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		status, err = c.get(ctx, "/")
		if err != nil {
			return err
		}
	}
	if !isSuccess(status) {
		return &APIError{StatusCode: status}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode, nil
}

// Detect uploads img as the multipart field "image" and returns the service's classification.
func (c *Client) Detect(ctx context.Context, img Image) (Result, error) {
	ctx, cancel := withTimeout(ctx, c.detectTimeout)
	defer cancel()

	body, contentType, err := encodeImage(img)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", body)
	if err != nil {
		return Result{}, fmt.Errorf("create detect request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("detect request: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return Result{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("decode detect response: %w", err)
	}
	if decoded.Result == nil {
		return Result{}, ErrMissingResult
	}
	return *decoded.Result, nil
}

// Message returns the most specific user-facing text for a failed detect call.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
	}
	return FallbackMessage
}

func encodeImage(img Image) (*bytes.Buffer, string, error) {
	filename := strings.TrimSpace(img.Filename)
	if filename == "" {
		filename = "image"
	}
	contentType := strings.TrimSpace(img.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, imageField, filename))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload errorResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
