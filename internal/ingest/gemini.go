package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini extracts documents with the Gemini multimodal API. Files go to the
// model as raw bytes; pre-extracted text is sent instead when set.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini extractor. The model defaults to
// gemini-2.0-flash when empty.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Extract(ctx context.Context, input ExtractInput) (Result, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.0)

	parts := []genai.Part{genai.Text(extractionPrompt())}
	if input.Text != "" {
		parts = append(parts, genai.Text("Document text:\n\n"+input.Text))
	} else {
		parts = append(parts, genai.Blob{MIMEType: input.MIMEType, Data: input.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("%w: empty gemini response", errProvider)
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return Result{}, fmt.Errorf("%w: unexpected gemini part %T", errProvider, resp.Candidates[0].Content.Parts[0])
	}

	raw := cleanJSONResponse(string(text))
	if !json.Valid([]byte(raw)) {
		return Result{}, fmt.Errorf("%w: gemini returned invalid JSON", errProvider)
	}
	return Result{Raw: json.RawMessage(raw), Provider: "gemini", Model: g.model}, nil
}

// cleanJSONResponse strips the ```json fences Gemini sometimes wraps its
// output in despite the JSON-only instruction.
func cleanJSONResponse(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "```json")
	s = strings.TrimPrefix(strings.TrimSpace(s), "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
