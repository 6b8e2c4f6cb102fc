package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const visionPrompt = `You are looking at a photograph of a book cover.
Identify the book's title and author. Respond with a JSON object of the form
{"title": "...", "author": "..."}. Use an empty string for any value you
cannot determine. Do not guess beyond what is visible on the cover.`

// CoverGuess is a best-effort identification of a book from its cover
// photograph. Either field may be empty when undetermined.
type CoverGuess struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Complete reports whether both title and author were identified.
func (g CoverGuess) Complete() bool {
	return strings.TrimSpace(g.Title) != "" && strings.TrimSpace(g.Author) != ""
}

// GeminiVisionClient identifies books from cover photographs using the
// Gemini API.
type GeminiVisionClient struct {
	client *genai.Client
	model  string
}

// NewGeminiVisionClient creates a Gemini vision client.
func NewGeminiVisionClient(ctx context.Context, apiKey, model string) (*GeminiVisionClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiVisionClient{
		client: client,
		model:  model,
	}, nil
}

// Name identifies this source.
func (c *GeminiVisionClient) Name() string { return "Gemini Vision" }

// IdentifyCover asks Gemini to read the title and author off a cover
// photograph. format is the image subtype without the "image/" prefix
// (e.g. "jpeg", "png").
func (c *GeminiVisionClient) IdentifyCover(ctx context.Context, image []byte, format string) (*CoverGuess, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1) // Low temperature for consistent output
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, image),
		genai.Text(visionPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	return parseCoverGuess(text)
}

// Close releases resources held by the client.
func (c *GeminiVisionClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// parseCoverGuess decodes the model's JSON answer, tolerating markdown
// code block wrappers.
func parseCoverGuess(text string) (*CoverGuess, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var guess CoverGuess
	if err := json.Unmarshal([]byte(text), &guess); err != nil {
		return nil, fmt.Errorf("parse vision response: %w", err)
	}

	guess.Title = strings.TrimSpace(guess.Title)
	guess.Author = strings.TrimSpace(guess.Author)
	return &guess, nil
}
