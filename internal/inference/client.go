package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Observer receives the latency of every upstream call.
type Observer interface {
	ObserveUpstream(status string, d time.Duration)
}

// Client calls a Hugging Face Inference API model endpoint.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	observer   Observer
}

// NewClient creates a client for the model at url. A nil httpClient
// means http.DefaultClient, which has no timeout.
func NewClient(httpClient *http.Client, url, token string, observer Observer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		url:        url,
		token:      token,
		observer:   observer,
	}
}

// Generate sends one text-to-image request and returns the raw image
// bytes. Non-200 answers come back as *LoadingError or *StatusError,
// failures to get an answer at all as *TransportError.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe("error", time.Since(start))
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.observe(strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Inference API responded")

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusServiceUnavailable:
		return nil, &LoadingError{EstimatedTime: estimatedTime(body), Body: string(body)}
	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

func (c *Client) observe(status string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(status, d)
	}
}

func estimatedTime(body []byte) time.Duration {
	var loading loadingResponse
	if err := json.Unmarshal(body, &loading); err != nil {
		return 0
	}
	if loading.EstimatedTime <= 0 {
		return 0
	}
	return time.Duration(loading.EstimatedTime * float64(time.Second))
}
