// Package gateway calls an OpenAI-compatible chat-completions endpoint
// (OpenRouter by default) to have a multimodal model analyze one image.
package gateway

import "time"

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "google/gemini-2.0-flash-exp"

	completionsPath = "/chat/completions"

	maxTokens   = 4000
	temperature = 0.7

	// requestTimeout bounds the whole exchange, including reading the body.
	requestTimeout = 60 * time.Second

	// OpenRouter uses these to attribute traffic to an application.
	refererHeader = "https://github.com/ironsheep/gemini-vision-mcp"
	titleHeader   = "Gemini Vision MCP Server"
)

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *apiImageURL `json:"image_url,omitempty"`
}

type apiImageURL struct {
	URL string `json:"url"`
}

type apiResponse struct {
	Model   string      `json:"model"`
	Choices []apiChoice `json:"choices"`
	Usage   *apiUsage   `json:"usage,omitempty"`
}

type apiChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
