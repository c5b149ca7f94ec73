// Package llm writes narrative scripts from ranked articles with an
// OpenAI-compatible chat completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/use-agent/scout/models"
)

// maxSourceChars bounds how much of each article body goes into the prompt.
const maxSourceChars = 6000

// Client is a lightweight OpenAI-compatible API client.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new LLM client with the given http.Client.
// Pass nil to use a client without a timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient}
}

// Params holds per-request LLM configuration (BYOK).
type Params struct {
	APIKey  string
	Model   string
	BaseURL string // e.g. "https://api.openai.com/v1"
}

// Source is one article handed to the writer.
type Source struct {
	URL   string
	Title string
	Body  string
}

// ScriptResult holds the generated script.
type ScriptResult struct {
	Script string
	Usage  *models.LLMUsage
}

// ScriptWriter turns articles into a script. *Client satisfies it.
type ScriptWriter interface {
	WriteScript(ctx context.Context, topic string, durationMinutes int, sources []Source, params Params) (*ScriptResult, error)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// WriteScript asks the model for a single-narrator script of roughly
// durationMinutes about topic, grounded in sources.
func (c *Client) WriteScript(ctx context.Context, topic string, durationMinutes int, sources []Source, params Params) (*ScriptResult, error) {
	if len(sources) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "no sources to write from", nil)
	}
	if params.APIKey == "" {
		return nil, models.NewScrapeError(models.ErrCodeLLMAuthFailure, "no LLM API key configured", nil)
	}

	reqBody := chatRequest{
		Model: params.Model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(topic, durationMinutes)},
			{Role: "user", Content: buildSourceDigest(sources)},
		},
		Temperature: 0.7,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(params.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+params.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyLLMError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}

	script := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if script == "" {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned an empty script", nil)
	}

	return &ScriptResult{
		Script: script,
		Usage: &models.LLMUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

func buildSystemPrompt(topic string, durationMinutes int) string {
	return fmt.Sprintf(`You are a professional podcast host creating an engaging %d-minute episode about %s.

Using only the news articles the user provides, write a natural, conversational script for a single narrator speaking directly to the audience.

Requirements:
- Conversational, engaging tone with natural transitions.
- An introduction and a conclusion.
- The script will be read by a text-to-speech engine: no music cues, stage directions, markdown or special characters.
- Spell out numbers and abbreviations.
- Do not invent facts that are not in the articles.`, durationMinutes, topic)
}

// buildSourceDigest lists each article as URL, title and a bounded body.
func buildSourceDigest(sources []Source) string {
	var b strings.Builder
	b.WriteString("NEWS ARTICLES:\n")
	for i, s := range sources {
		body := s.Body
		if utf8.RuneCountInString(body) > maxSourceChars {
			body = string([]rune(body)[:maxSourceChars])
		}
		fmt.Fprintf(&b, "\n[%d] %s\nURL: %s\n\n%s\n", i+1, s.Title, s.URL, body)
	}
	return b.String()
}

// classifyLLMError maps HTTP status codes to error codes.
func classifyLLMError(statusCode int, body []byte) *models.ScrapeError {
	var errResp chatErrorResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}
