package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"
)

// DefaultOllamaTimeout bounds a single Ollama chat call
const DefaultOllamaTimeout = 120 * time.Second

// Ollama implements the Extractor interface using a local Ollama vision model
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama Extractor instance
// Recommended vision models: llava:1.6, llava:latest, qwen2-vl:7b, bakllava
func NewOllama(baseURL string, modelName string, timeout time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}
	if timeout <= 0 {
		timeout = DefaultOllamaTimeout
	}

	return &Ollama{
		baseURL: baseURL,
		model:   modelName,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message *ollamaMessage `json:"message"`
	Done    bool           `json:"done"`
}

// Extract sends the instruction and the image to Ollama in a single attempt
func (o *Ollama) Extract(ctx context.Context, img image.Image, instruction string) (*Response, error) {
	pngData, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelCall, err)
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading and extracting information from invoices. You must carefully read all text in images and extract accurate information.",
			},
			{
				Role:    "user",
				Content: instruction,
				Images:  []string{base64.StdEncoding.EncodeToString(pngData)},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %w", ErrModelCall, err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrModelCall, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling ollama API: %w", ErrModelCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama API error (status %d): %s", ErrModelCall, resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrModelCall, err)
	}

	// A body without a message has no candidates
	if chatResp.Message == nil {
		return &Response{}, nil
	}
	return TextResponse(chatResp.Message.Content), nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
