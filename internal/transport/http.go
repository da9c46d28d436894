package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shopstream/storefront-sync/internal/graphql"
)

const defaultTimeout = 30 * time.Second

// StatusError is a non-200 HTTP exchange with the GraphQL endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// HTTPLink is the terminal transport stage: it performs the actual network
// exchange as a POST of {query, variables} JSON.
type HTTPLink struct {
	url    string
	client *http.Client
}

// HTTPOption configures the terminal link.
type HTTPOption func(*HTTPLink)

// WithClient sets a custom HTTP client. The default client carries a cookie
// jar so same-site session cookies flow with every request, and traces
// exchanges through otelhttp.
func WithClient(client *http.Client) HTTPOption {
	return func(l *HTTPLink) {
		l.client = client
	}
}

// NewHTTPLink creates the terminal link posting to url.
func NewHTTPLink(url string, opts ...HTTPOption) *HTTPLink {
	l := &HTTPLink{url: strings.TrimSuffix(url, "/")}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		jar, _ := cookiejar.New(nil)
		l.client = &http.Client{
			Timeout:   defaultTimeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return l
}

// Client exposes the underlying HTTP client so the token refresher can
// share its cookie jar.
func (l *HTTPLink) Client() *http.Client {
	return l.client
}

type requestBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

func (l *HTTPLink) Do(ctx context.Context, op *graphql.Operation) (*graphql.Response, error) {
	body, err := json.Marshal(requestBody{
		Query:         op.Document,
		OperationName: op.Name,
		Variables:     op.Variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range op.Header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(raw)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	var result graphql.Response
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}
