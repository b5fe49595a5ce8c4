package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ironsheep/gemini-vision-mcp/internal/apperr"
	"github.com/pkg/errors"
)

// Client sends image analysis requests to the gateway. It holds no mutable
// state and is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	debug      bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL, e.g. "https://openrouter.ai/api/v1".
// Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient replaces the default client, which has a 60 second timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDebug enables logging of token usage.
func WithDebug(debug bool) Option {
	return func(c *Client) { c.debug = debug }
}

// StatusError carries a non-200 gateway response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Body)
}

// New creates a Client. An empty apiKey is an apperr.ConfigError.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.New(apperr.ConfigError, "gateway API key is required")
	}

	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Model returns the model identifier the client sends.
func (c *Client) Model() string {
	return c.model
}

// AnalyzeImage asks the model about one image and returns its answer.
//
// imageBase64 is the standard base64 encoding of the image and mimeType its
// type; both are combined into a data URI. Exactly one HTTP request is made.
//
// Errors:
//   - apperr.NetworkError when the request cannot be completed
//   - apperr.RemoteAPIError wrapping a *StatusError for non-200 responses
//   - apperr.RemoteAPIError when the body has no usable choice
func (c *Client) AnalyzeImage(ctx context.Context, prompt, imageBase64, mimeType string) (string, error) {
	body, err := json.Marshal(c.buildRequest(prompt, imageBase64, mimeType))
	if err != nil {
		return "", errors.Wrap(err, "gateway: encoding request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(err, apperr.NetworkError, "Network error")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", refererHeader)
	httpReq.Header.Set("X-Title", titleHeader)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("Network error calling gateway: %v", err)
		return "", apperr.Wrap(err, apperr.NetworkError, "Network error")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(err, apperr.NetworkError, "Network error")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		log.Printf("API request failed: %v", statusErr)
		return "", apperr.Wrap(statusErr, apperr.RemoteAPIError, "API request failed")
	}

	return c.parseResponse(respBody)
}

func (c *Client) buildRequest(prompt, imageBase64, mimeType string) apiRequest {
	return apiRequest{
		Model: c.model,
		Messages: []apiMessage{
			{
				Role: "user",
				Content: []apiContent{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &apiImageURL{
						URL: "data:" + mimeType + ";base64," + imageBase64,
					}},
				},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

func (c *Client) parseResponse(body []byte) (string, error) {
	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		log.Printf("Malformed gateway response: %v", err)
		return "", apperr.New(apperr.RemoteAPIError, "No response from model API")
	}

	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return "", apperr.New(apperr.RemoteAPIError, "No response from model API")
	}

	if c.debug && apiResp.Usage != nil {
		log.Printf("Gateway usage (model %s): prompt=%d completion=%d total=%d",
			apiResp.Model, apiResp.Usage.PromptTokens, apiResp.Usage.CompletionTokens, apiResp.Usage.TotalTokens)
	}

	return apiResp.Choices[0].Message.Content, nil
}
