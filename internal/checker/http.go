package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// DefaultServiceURL is the public Nu HTML checker endpoint.
const DefaultServiceURL = "https://validator.w3.org/nu/"

// DefaultUserAgent is the user agent string sent to the service.
const DefaultUserAgent = "htmlint/1.0"

// HTTPOptions configures the HTTP client.
type HTTPOptions struct {
	ServiceURL string
	UserAgent  string
	Headers    map[string]string
}

// DefaultHTTPOptions returns sensible defaults for the public checker.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		ServiceURL: DefaultServiceURL,
		UserAgent:  DefaultUserAgent,
	}
}

// HTTPClient posts documents to a Nu HTML checker service and decodes its JSON output.
type HTTPClient struct {
	opts   *HTTPOptions
	client *http.Client
}

// NewHTTPClient creates a client for the service described by opts.
// The per-call deadline comes from the context passed to Validate.
func NewHTTPClient(opts *HTTPOptions) *HTTPClient {
	if opts == nil {
		opts = DefaultHTTPOptions()
	}
	return &HTTPClient{opts: opts, client: &http.Client{}}
}

// Validate uploads req.File and returns the messages the service reported
func (c *HTTPClient) Validate(ctx context.Context, req Request) (*Result, error) {
	endpoint, err := c.endpoint(req)
	if err != nil {
		return nil, &Error{File: req.File, Message: "invalid service URL", Cause: err}
	}

	body, err := os.ReadFile(req.File)
	if err != nil {
		return nil, &Error{File: req.File, Message: "failed to read document", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{File: req.File, Message: "failed to create request", Cause: err}
	}

	contentType := "text/html"
	if req.Charset != "" {
		contentType += "; charset=" + req.Charset
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	for key, value := range c.opts.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{File: req.File, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{File: req.File, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{File: req.File, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &Error{File: req.File, Message: "failed to decode service response", Cause: err}
	}

	return &result, nil
}

func (c *HTTPClient) endpoint(req Request) (string, error) {
	u, err := url.Parse(c.opts.ServiceURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("missing scheme or host in %q", c.opts.ServiceURL)
	}

	q := u.Query()
	q.Set("out", "json")
	if req.Doctype != "" {
		q.Set("doctype", req.Doctype)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
