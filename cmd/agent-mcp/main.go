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
)

// scrapeRequest mirrors the agent API request model.
type scrapeRequest struct {
	URL            string   `json:"url"`
	FactTypes      []string `json:"fact_types"`
	ForcedBackend  string   `json:"forced_backend,omitempty"`
	UseProxy       bool     `json:"use_proxy,omitempty"`
	IncludeContent bool     `json:"include_content,omitempty"`
}

// scrapeResponse mirrors the agent API result model.
type scrapeResponse struct {
	Facts struct {
		Emails       []string `json:"emails"`
		PhoneNumbers []string `json:"phone_numbers"`
		Headings     []struct {
			Level int    `json:"level"`
			Text  string `json:"text"`
		} `json:"headings"`
		Links []struct {
			URL      string `json:"url"`
			Text     string `json:"text"`
			Internal bool   `json:"internal"`
		} `json:"links"`
	} `json:"facts"`
	Metadata struct {
		URL       string `json:"url"`
		Backend   string `json:"backend"`
		ProxyUsed bool   `json:"proxy_used"`
		ElapsedMS int64  `json:"elapsed_ms"`
	} `json:"metadata"`
	Content string `json:"content"`
}

// analyzeResponse mirrors the agent API analysis model.
type analyzeResponse struct {
	URL             string `json:"url"`
	Characteristics struct {
		IsDynamic           bool `json:"is_dynamic"`
		HasStructuredData   bool `json:"has_structured_data"`
		HasAntiScraping     bool `json:"has_anti_scraping"`
		RequiresInteraction bool `json:"requires_interaction"`
	} `json:"characteristics"`
	Backend string `json:"backend"`
}

// errorResponse mirrors the agent API error envelope.
type errorResponse struct {
	Error *struct {
		Code     string `json:"code"`
		Message  string `json:"message"`
		Attempts []struct {
			Backend string `json:"backend"`
			Cause   string `json:"cause"`
		} `json:"attempts"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("AGENT_BASE_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: only needed when the agent API has auth enabled.
	apiKey := os.Getenv("AGENT_API_KEY")

	s := server.NewMCPServer(
		"scraping-agent",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapePageTool := mcp.NewTool("scrape_page",
		mcp.WithDescription("Scrape a web page and extract structured facts (emails, phone numbers, headings, links). Automatically picks the fetch strategy: plain HTTP, headless browser, crawler, or hosted scraping APIs, with fallback between them."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithArray("fact_types",
			mcp.Required(),
			mcp.Description("Fact types to extract: 'emails', 'phone_numbers', 'headings', 'links'"),
		),
		mcp.WithString("forced_backend",
			mcp.Description("Pin the fetch backend instead of automatic selection"),
			mcp.Enum("static", "browser", "browser_light", "crawl", "api"),
		),
		mcp.WithBoolean("use_proxy",
			mcp.Description("Route the fetch through the configured proxy pool"),
		),
		mcp.WithBoolean("include_content",
			mcp.Description("Also return the page's main article as markdown"),
		),
	)
	s.AddTool(scrapePageTool, handleScrapePage(apiURL, apiKey))

	analyzePageTool := mcp.NewTool("analyze_page",
		mcp.WithDescription("Analyze a web page without scraping it: reports dynamic-rendering, structured-data, anti-scraping and interaction signals plus the backend the agent would pick."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to analyze"),
		),
	)
	s.AddTool(analyzePageTool, handleAnalyzePage(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the agent API and returns the status code
// and response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// apiErrorMessage renders a structured API error, including the per-backend
// attempt chain when every backend failed.
func apiErrorMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == nil {
		return "request failed: " + strings.TrimSpace(string(body))
	}

	msg := fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
	for _, a := range resp.Error.Attempts {
		msg += fmt.Sprintf("\n  %s: %s", a.Backend, a.Cause)
	}
	return msg
}

func handleScrapePage(apiURL, apiKey string) server.ToolHandlerFunc {
	// Generous client timeout: a full fallback chain can run several backends.
	client := &http.Client{Timeout: 240 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		factTypes, err := request.RequireStringSlice("fact_types")
		if err != nil {
			return mcp.NewToolResultError("fact_types is required and must be an array of strings"), nil
		}

		reqBody := scrapeRequest{
			URL:            url,
			FactTypes:      factTypes,
			ForcedBackend:  request.GetString("forced_backend", ""),
			UseProxy:       request.GetBool("use_proxy", false),
			IncludeContent: request.GetBool("include_content", false),
		}

		status, respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiErrorMessage(respBody)), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		return mcp.NewToolResultText(formatScrape(&resp)), nil
	}
}

func handleAnalyzePage(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		status, respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/analyze", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analyze request failed: %v", err)), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiErrorMessage(respBody)), nil
		}

		var resp analyzeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "URL: %s\nSelected backend: %s\n\nCharacteristics:\n", resp.URL, resp.Backend)
		fmt.Fprintf(&sb, "  dynamic rendering:    %t\n", resp.Characteristics.IsDynamic)
		fmt.Fprintf(&sb, "  structured data:      %t\n", resp.Characteristics.HasStructuredData)
		fmt.Fprintf(&sb, "  anti-scraping:        %t\n", resp.Characteristics.HasAntiScraping)
		fmt.Fprintf(&sb, "  requires interaction: %t\n", resp.Characteristics.RequiresInteraction)

		return mcp.NewToolResultText(sb.String()), nil
	}
}

// formatScrape renders the scrape result as readable text for the tool output.
func formatScrape(resp *scrapeResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s\nBackend: %s", resp.Metadata.URL, resp.Metadata.Backend)
	if resp.Metadata.ProxyUsed {
		sb.WriteString(" (via proxy)")
	}
	fmt.Fprintf(&sb, "\nElapsed: %dms\n", resp.Metadata.ElapsedMS)

	if len(resp.Facts.Emails) > 0 {
		sb.WriteString("\nEmails:\n")
		for _, e := range resp.Facts.Emails {
			sb.WriteString("  " + e + "\n")
		}
	}
	if len(resp.Facts.PhoneNumbers) > 0 {
		sb.WriteString("\nPhone numbers:\n")
		for _, p := range resp.Facts.PhoneNumbers {
			sb.WriteString("  " + p + "\n")
		}
	}
	if len(resp.Facts.Headings) > 0 {
		sb.WriteString("\nHeadings:\n")
		for _, h := range resp.Facts.Headings {
			fmt.Fprintf(&sb, "  [h%d] %s\n", h.Level, h.Text)
		}
	}
	if len(resp.Facts.Links) > 0 {
		fmt.Fprintf(&sb, "\nLinks (%d):\n", len(resp.Facts.Links))
		for _, l := range resp.Facts.Links {
			scope := "external"
			if l.Internal {
				scope = "internal"
			}
			fmt.Fprintf(&sb, "  %s [%s] %s\n", l.Text, scope, l.URL)
		}
	}

	if resp.Content != "" {
		sb.WriteString("\n---\n" + resp.Content + "\n")
	}

	return sb.String()
}
