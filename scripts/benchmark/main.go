package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/scout/models"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "Scout API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	topic  = flag.String("topic", "climate", "topic every seed is explored for")
	runs   = flag.Int("runs", 3, "Number of runs per seed for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Seed pages covering the common site shapes.
var seeds = []struct {
	Label string
	URL   string
}{
	{"Wire", "https://apnews.com/"},
	{"Broadcaster", "https://www.bbc.com/news"},
	{"Section", "https://www.theguardian.com/environment"},
	{"Aggregator", "https://news.ycombinator.com/"},
	{"Blog", "https://go.dev/blog/"},
}

// --- Benchmark result types ---

type runResult struct {
	Run        int     `json:"run"`
	TotalMs    int64   `json:"total_ms"`
	CallsMade  int     `json:"calls_made"`
	StopReason string  `json:"stop_reason"`
	Accepted   bool    `json:"accepted"`
	Found      bool    `json:"found"`
	Score      float64 `json:"score"`
	Strategy   string  `json:"strategy,omitempty"`
	Tokens     int     `json:"tokens"`
	Error      string  `json:"error,omitempty"`
}

type seedAverages struct {
	TotalMs    float64 `json:"total_ms"`
	CallsMade  float64 `json:"calls_made"`
	Score      float64 `json:"score"`
	AcceptRate float64 `json:"accept_rate"`
}

type seedResult struct {
	URL      string        `json:"url"`
	Label    string        `json:"label"`
	Runs     []runResult   `json:"runs"`
	Averages *seedAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string       `json:"timestamp"`
	APIURL     string       `json:"api_url"`
	Topic      string       `json:"topic"`
	RunsPerURL int          `json:"runs_per_url"`
	Results    []seedResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Scout Exploration Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Topic:     %s\n", *topic)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure scout is running (scout serve)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		Topic:      *topic,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 3 * time.Minute}
	for _, s := range seeds {
		fmt.Printf("Exploring [%s] %s ...\n", s.Label, s.URL)
		sr := seedResult{URL: s.URL, Label: s.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := exploreSeed(client, s.URL, i)
			switch {
			case rr.Error != "" && !rr.Found:
				fmt.Printf("FAILED: %s (%s)\n", rr.Error, rr.StopReason)
			default:
				fmt.Printf("%s  %dms  %d calls  score %.2f\n", rr.StopReason, rr.TotalMs, rr.CallsMade, rr.Score)
			}
			sr.Runs = append(sr.Runs, rr)
		}

		sr.Averages = computeAverages(sr.Runs)
		report.Results = append(report.Results, sr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func exploreSeed(client *http.Client, url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(models.ExploreRequest{URL: url, Topic: *topic})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/explore", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var er models.ExploreResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	return fromResponse(rr, &er)
}

func fromResponse(rr runResult, er *models.ExploreResponse) runResult {
	rr.TotalMs = er.Timing.TotalMs
	rr.CallsMade = er.CallsMade
	rr.StopReason = er.StopReason
	rr.Accepted = er.State == "accepted"
	rr.Found = er.Found
	if er.Article != nil {
		rr.Score = er.Article.RelevanceScore
		rr.Strategy = string(er.Article.Strategy)
		rr.Tokens = er.Article.Tokens
	}
	if er.Error != nil {
		rr.Error = er.Error.Message
	}
	return rr
}

// computeAverages averages runs that reached the API. Nil when none did.
func computeAverages(runs []runResult) *seedAverages {
	var n, accepted int
	var avg seedAverages

	for _, r := range runs {
		if r.StopReason == "" {
			continue
		}
		n++
		avg.TotalMs += float64(r.TotalMs)
		avg.CallsMade += float64(r.CallsMade)
		avg.Score += r.Score
		if r.Accepted {
			accepted++
		}
	}

	if n == 0 {
		return nil
	}

	f := float64(n)
	avg.TotalMs /= f
	avg.CallsMade /= f
	avg.Score /= f
	avg.AcceptRate = float64(accepted) / f
	return &avg
}

func printTable(results []seedResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Seed\tAvg Latency\tAvg Calls\tAvg Score\tAccepted\n")
	fmt.Fprintf(w, "────\t───────────\t─────────\t─────────\t────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", truncateURL(r.URL, 40))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%.1f\t%.2f\t%.0f%%\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.TotalMs),
			r.Averages.CallsMade,
			r.Averages.Score,
			r.Averages.AcceptRate*100,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncateURL(u string, limit int) string {
	if len(u) <= limit {
		return u
	}
	return u[:limit-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
