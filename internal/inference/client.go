package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/coachai/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	apiKeyHeader       = "X-Api-Key"
	defaultTimeout     = 5 * time.Minute
	maxResponseBytes   = 4 << 20
	maxErrorBodyToShow = 512
)

var ErrEmptyResponse = errors.New("inference service returned an empty body")

// StatusError is returned when the inference service answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference service responded with %d: %s", e.StatusCode, e.Body)
}

// Client posts workout videos to the analysis service and returns its raw answer.
// The answer is untrusted and is validated by the caller.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		url:    url,
		apiKey: apiKey,
	}
}

func (c *Client) Analyze(ctx context.Context, video io.Reader, mimeType string) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "inference.analyze")
	span.SetAttributes(attribute.String("video.mime", mimeType))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, video)
	if err != nil {
		return nil, fmt.Errorf("new inference request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call inference service: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Errorf("close inference response body: %s", closeErr)
		}
	}()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read inference response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		shown := body
		if len(shown) > maxErrorBodyToShow {
			shown = shown[:maxErrorBodyToShow]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(shown)}
	}
	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}

	log.Debugf("inference service answered with %d bytes", len(body))
	return body, nil
}
