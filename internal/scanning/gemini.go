package scanning

import (
	"context"
	"fmt"
	"image"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini implements the Extractor interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(ctx context.Context, apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Extract sends the instruction and the image to Gemini in a single attempt
func (g *Gemini) Extract(ctx context.Context, img image.Image, instruction string) (*Response, error) {
	pngData, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelCall, err)
	}

	// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
	resp, err := g.model.GenerateContent(ctx,
		genai.Text(instruction),
		genai.ImageData("png", pngData),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: generating content: %w", ErrModelCall, err)
	}

	return fromGenai(resp), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// fromGenai keeps the candidate/part shape of a Gemini response.
// Non-text parts are retained as placeholders so part positions do not shift.
func fromGenai(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	for _, c := range resp.Candidates {
		var candidate Candidate
		if c != nil && c.Content != nil {
			for _, p := range c.Content.Parts {
				if text, ok := p.(genai.Text); ok {
					candidate.Parts = append(candidate.Parts, Part{Text: string(text), IsText: true})
				} else {
					candidate.Parts = append(candidate.Parts, Part{})
				}
			}
		}
		out.Candidates = append(out.Candidates, candidate)
	}
	return out
}
