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
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "agent API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering 5 site types.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
	{"Complex", "https://github.com/go-rod/rod"},
}

// --- Request / Response types (mirrors models package) ---

type scrapeRequest struct {
	URL       string   `json:"url"`
	FactTypes []string `json:"fact_types"`
}

type scrapeResponse struct {
	Facts struct {
		Emails       []string          `json:"emails"`
		PhoneNumbers []string          `json:"phone_numbers"`
		Headings     []json.RawMessage `json:"headings"`
		Links        []json.RawMessage `json:"links"`
	} `json:"facts"`
	Metadata struct {
		Backend   string `json:"backend"`
		ProxyUsed bool   `json:"proxy_used"`
		ElapsedMS int64  `json:"elapsed_ms"`
	} `json:"metadata"`
}

type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Benchmark result types ---

type runResult struct {
	Run       int    `json:"run"`
	ClientMs  int64  `json:"client_ms"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Backend   string `json:"backend"`
	Emails    int    `json:"emails"`
	Headings  int    `json:"headings"`
	Links     int    `json:"links"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type urlAverages struct {
	ClientMs  float64 `json:"client_ms"`
	ElapsedMs float64 `json:"elapsed_ms"`
	Headings  float64 `json:"headings"`
	Links     float64 `json:"links"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Scraping Agent Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the agent is running (e.g. make run)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(t.URL, i)
			if rr.Success {
				fmt.Printf("OK  %dms  via %s\n", rr.ClientMs, rr.Backend)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
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

func benchmarkURL(url string, run int) runResult {
	rr := runResult{Run: run}

	reqBody := scrapeRequest{
		URL:       url,
		FactTypes: []string{"emails", "headings", "links"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 240 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.ClientMs = time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != nil {
			rr.Error = fmt.Sprintf("[%s] %s", er.Error.Code, er.Error.Message)
		} else {
			rr.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return rr
	}

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = true
	rr.ElapsedMs = sr.Metadata.ElapsedMS
	rr.Backend = sr.Metadata.Backend
	rr.Emails = len(sr.Facts.Emails)
	rr.Headings = len(sr.Facts.Headings)
	rr.Links = len(sr.Facts.Links)

	return rr
}

func computeAverages(runs []runResult) *urlAverages {
	var successCount int
	var avg urlAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.ClientMs += float64(r.ClientMs)
		avg.ElapsedMs += float64(r.ElapsedMs)
		avg.Headings += float64(r.Headings)
		avg.Links += float64(r.Links)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.ClientMs /= n
	avg.ElapsedMs /= n
	avg.Headings /= n
	avg.Links /= n
	return &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tBackend\tHeadings\tLinks\n")
	fmt.Fprintf(w, "───\t───────────\t───────\t────────\t─────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", truncateURL(r.URL, 40))
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%s\t%.0f\t%.0f\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.ClientMs),
			dominantBackend(r.Runs),
			r.Averages.Headings,
			r.Averages.Links,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

// dominantBackend reports the backend that won most runs.
func dominantBackend(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		if r.Success {
			counts[r.Backend]++
		}
	}
	best, bestCount := "-", 0
	for backend, count := range counts {
		if count > bestCount {
			best = backend
			bestCount = count
		}
	}
	return best
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
