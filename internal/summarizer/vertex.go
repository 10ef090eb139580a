package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
)

const vertexSystemPrompt = "You summarize documents for their owner. Reply with the summary only."

// VertexClient generates summaries with a Gemini model on Vertex AI.
type VertexClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

func NewVertexClient(ctx context.Context, projectID, region, modelName string, timeout time.Duration) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(vertexSystemPrompt)},
	}
	return &VertexClient{client: client, model: model, timeout: timeout}, nil
}

func (c *VertexClient) Summarize(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", ErrAnalysisFailed)
	}
	return text, nil
}

func (c *VertexClient) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
