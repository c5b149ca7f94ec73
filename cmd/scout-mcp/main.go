package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/scout/models"
)

func main() {
	apiURL := os.Getenv("SCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SCOUT_API_KEY is required")
		os.Exit(1)
	}

	s := newServer(apiURL, apiKey)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"scout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	exploreTool := mcp.NewTool("explore_url",
		mcp.WithDescription("Start at a page (a homepage or section front), follow the links most likely to be about the topic, and return the first article that is relevant. Uses a small, fixed budget of page visits."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The seed URL to explore from"),
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("What the article should be about, e.g. 'solar power'"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: 'text' (default), 'markdown', or 'markdown_citations'"),
			mcp.Enum("text", "markdown", "markdown_citations"),
		),
	)
	s.AddTool(exploreTool, handleExplore(apiURL, apiKey))

	rankTool := mcp.NewTool("rank_urls",
		mcp.WithDescription("Explore many seed URLs for one topic in parallel and return the most relevant articles, best first. Near-duplicate stories are collapsed."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Seed URLs, one exploration each"),
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Topic used to score the articles"),
		),
		mcp.WithNumber("max_articles",
			mcp.Description("Maximum number of articles to return (default: 5)"),
		),
		mcp.WithNumber("min_relevance",
			mcp.Description("Drop articles scoring below this, 0 to 1 (default: 0.3)"),
		),
	)
	s.AddTool(rankTool, handleRank(apiURL, apiKey))

	topicsTool := mcp.NewTool("discover_topic_urls",
		mcp.WithDescription("Find recent news article URLs for a topic. Feed the result to rank_urls."),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Search topic"),
		),
		mcp.WithNumber("num_urls",
			mcp.Description("How many URLs to return (default: 5, max: 50)"),
		),
	)
	s.AddTool(topicsTool, handleTopics(apiURL, apiKey))

	return s
}

// apiCall sends a request to the Scout API and returns the response body.
// payload is JSON-encoded when non-nil.
func apiCall(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollInterval is how often pollJob checks an async job.
var pollInterval = 2 * time.Second

// pollJob polls a job endpoint until its status is no longer "processing"
// or ctx is done.
func pollJob(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) (*models.BatchStatusResponse, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := apiCall(ctx, client, http.MethodGet, apiURL, apiKey, endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("poll: %w", err)
			}
			var status models.BatchStatusResponse
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != models.JobProcessing {
				return &status, nil
			}
		}
	}
}

func errorText(fallback string, detail *models.ErrorDetail) string {
	if detail == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
}

func handleExplore(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		topic, err := request.RequireString("topic")
		if err != nil {
			return mcp.NewToolResultError("topic is required"), nil
		}

		payload := models.ExploreRequest{
			URL:          url,
			Topic:        topic,
			OutputFormat: request.GetString("output_format", ""),
		}
		respBody, err := apiCall(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/explore", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.ExploreResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success || resp.Article == nil {
			return mcp.NewToolResultError(errorText("exploration failed", resp.Error) +
				fmt.Sprintf(" (stopped: %s after %d actions)", resp.StopReason, resp.CallsMade)), nil
		}

		return mcp.NewToolResultText(formatExplore(&resp)), nil
	}
}

func formatExplore(resp *models.ExploreResponse) string {
	a := resp.Article
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nSource: %s\nRelevance: %.2f (%s)\n", a.Title, a.URL, a.RelevanceScore, a.Reason)
	if resp.State != "accepted" {
		sb.WriteString("Note: best match found, below the relevance threshold\n")
	}
	sb.WriteString("\n")
	sb.WriteString(a.Content)
	return sb.String()
}

func handleRank(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}
		topic, err := request.RequireString("topic")
		if err != nil {
			return mcp.NewToolResultError("topic is required"), nil
		}

		payload := models.RankRequest{
			URLs:        urls,
			Topic:       topic,
			MaxArticles: request.GetInt("max_articles", 0),
		}
		if _, ok := request.GetArguments()["min_relevance"]; ok {
			v := request.GetFloat("min_relevance", 0)
			payload.MinRelevance = &v
		}

		respBody, err := apiCall(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/rank/async", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("rank request failed: %v", err)), nil
		}
		var accepted models.BatchResponse
		if err := json.Unmarshal(respBody, &accepted); err != nil || accepted.ID == "" {
			return mcp.NewToolResultError("rank job creation failed: " + string(respBody)), nil
		}

		status, err := pollJob(ctx, client, apiURL, apiKey, "/api/v1/rank/"+accepted.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling rank job failed: %v", err)), nil
		}
		if status.Result == nil || len(status.Result.Articles) == 0 {
			var detail *models.ErrorDetail
			if status.Result != nil {
				detail = status.Result.Error
			}
			return mcp.NewToolResultError(errorText("no relevant content found", detail)), nil
		}

		return mcp.NewToolResultText(formatRank(status)), nil
	}
}

func formatRank(status *models.BatchStatusResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ranked %d articles for %q (%d/%d seeds explored)\n\n",
		len(status.Result.Articles), status.Topic, status.Result.Explored, status.Result.Total)
	for i, a := range status.Result.Articles {
		fmt.Fprintf(&sb, "--- [%d] %s (%.2f) ---\n%s\n%s\n\n", i+1, a.Title, a.RelevanceScore, a.URL, a.Content)
	}
	return sb.String()
}

func handleTopics(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		topic, err := request.RequireString("topic")
		if err != nil {
			return mcp.NewToolResultError("topic is required"), nil
		}

		payload := models.TopicsRequest{Topic: topic, NumURLs: request.GetInt("num_urls", 0)}
		respBody, err := apiCall(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/topics", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("topics request failed: %v", err)), nil
		}

		var resp models.TopicsResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse topics response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("topic search failed", resp.Error)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Found %d URLs for %q:\n\n", len(resp.URLs), resp.Topic)
		for _, u := range resp.URLs {
			sb.WriteString(u + "\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
