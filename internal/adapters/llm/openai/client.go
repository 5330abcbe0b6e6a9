package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/ports"
)

const (
	maxTokens   = 1000
	temperature = 0.7
)

// Client implements ports.Planner via an OpenAI-compatible chat completions API.
type Client struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	model          string
	fallbackModels []string
	logger         *slog.Logger
}

func NewClient(httpClient *http.Client, apiKey, baseURL, model string, fallbackModels []string, logger *slog.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		model:          model,
		fallbackModels: fallbackModels,
		logger:         logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Plan(ctx context.Context, in ports.PlanInput) (domain.GeneratedItinerary, error) {
	models := make([]string, 0, 1+len(c.fallbackModels))
	models = append(models, c.model)
	models = append(models, c.fallbackModels...)

	var lastErr error
	for _, model := range models {
		out, err := c.planWithModel(ctx, in, model)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if len(models) > 1 {
			c.logger.WarnContext(ctx, "model failed, trying next", "model", model, "error", err)
		}
	}

	return domain.GeneratedItinerary{}, lastErr
}

func (c *Client) planWithModel(ctx context.Context, in ports.PlanInput, model string) (domain.GeneratedItinerary, error) {
	userPrompt := buildUserPrompt(in)

	content, err := c.callLLM(ctx, model, systemPrompt, userPrompt)
	if err != nil {
		return domain.GeneratedItinerary{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	var out domain.GeneratedItinerary
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &out); err != nil {
		c.logger.WarnContext(ctx, "LLM returned invalid JSON, retrying", "model", model, "error", err)
		content, err = c.callLLM(ctx, model, systemPrompt, retryPrompt(content, in.Country))
		if err != nil {
			return domain.GeneratedItinerary{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
		}
		if err := json.Unmarshal([]byte(StripCodeFence(content)), &out); err != nil {
			return domain.GeneratedItinerary{}, fmt.Errorf("%w: %w", domain.ErrInvalidLLMJSON, err)
		}
	}

	return out, nil
}

func (c *Client) callLLM(ctx context.Context, model, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content in response")
	}
	return content, nil
}

// StripCodeFence removes a surrounding ```json or ``` markdown fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

const systemPrompt = "You are a travel expert who creates detailed itineraries from community recommendations. " +
	"Always respond with valid JSON only, without markdown formatting or code blocks."

const schemaTemplate = `{
  "destination": "City, Country",
  "country": "%s",
  "duration": "3-Day AI Itinerary",
  "days": [
    {
      "day": 1,
      "title": "Day Activity Title",
      "description": "Brief engaging description",
      "activities": ["activity 1", "activity 2", "activity 3"]
    }
  ],
  "communityHighlights": ["highlight 1", "highlight 2", "highlight 3"]
}`

func buildUserPrompt(in ports.PlanInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a 3-day travel itinerary for %s based on the following Reddit community recommendations:\n\n", in.Country)

	b.WriteString("POSTS:\n")
	for i, p := range in.Posts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Title: %s\nContent: %s\n", p.Title, p.Body)
	}

	b.WriteString("\nCOMMUNITY COMMENTS:\n")
	for _, comment := range in.Comments {
		if comment != "" {
			fmt.Fprintf(&b, "%s\n", comment)
		}
	}

	b.WriteString("\nPlease respond with a JSON object in this exact format:\n")
	fmt.Fprintf(&b, schemaTemplate, in.Country)
	b.WriteString("\n\nFocus on authentic local experiences mentioned in the community content. Make it engaging and practical.")
	return b.String()
}

func retryPrompt(badJSON, country string) string {
	return fmt.Sprintf(`Your previous response was not valid JSON. Here is what you returned:
%s

Return ONLY the corrected JSON object matching this schema (no markdown, no code fences):
`+schemaTemplate, badJSON, country)
}
