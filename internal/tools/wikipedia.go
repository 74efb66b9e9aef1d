package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
)

const (
	defaultWikiAPIURL     = "https://en.wikipedia.org/w/api.php"
	defaultWikiSummaryURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"
	defaultWikiUserAgent  = "MiniAgentsEducationalBot/1.0 (Educational purposes; Go net/http)"
	defaultWikiMaxChars   = 500
)

// WikipediaOptions configures the Wikipedia client. Zero fields take defaults.
type WikipediaOptions struct {
	APIURL     string
	SummaryURL string
	UserAgent  string
	Timeout    time.Duration
	MaxChars   int
}

// WikiSummary is one page summary from the REST endpoint.
type WikiSummary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// WikipediaClient wraps the MediaWiki action API and the REST summary endpoint.
type WikipediaClient struct {
	opts       WikipediaOptions
	httpClient *http.Client
}

// NewWikipediaClient creates a client with a per-request timeout (default 10s).
func NewWikipediaClient(opts WikipediaOptions) *WikipediaClient {
	opts.APIURL = llmutils.StringOrDefault(opts.APIURL, defaultWikiAPIURL)
	opts.SummaryURL = llmutils.StringOrDefault(opts.SummaryURL, defaultWikiSummaryURL)
	opts.UserAgent = llmutils.StringOrDefault(opts.UserAgent, defaultWikiUserAgent)
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = defaultWikiMaxChars
	}
	return &WikipediaClient{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

func (c *WikipediaClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s for url: %s", resp.Status, rawURL)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *WikipediaClient) actionURL(q url.Values) string {
	q.Set("action", "query")
	q.Set("format", "json")
	return c.opts.APIURL + "?" + q.Encode()
}

// Search returns up to limit page titles matching query.
func (c *WikipediaClient) Search(ctx context.Context, query string, limit int) ([]string, error) {
	var data struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	q := url.Values{}
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", fmt.Sprintf("%d", limit))
	if err := c.getJSON(ctx, c.actionURL(q), &data); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(data.Query.Search))
	for _, s := range data.Query.Search {
		titles = append(titles, s.Title)
	}
	return titles, nil
}

// Extract returns the plain-text intro of a page. found is false when the
// response carries no pages at all.
func (c *WikipediaClient) Extract(ctx context.Context, title string) (extract string, found bool, err error) {
	var data struct {
		Query struct {
			Pages map[string]struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	q := url.Values{}
	q.Set("prop", "extracts")
	q.Set("exintro", "1")
	q.Set("explaintext", "1")
	q.Set("titles", title)
	if err := c.getJSON(ctx, c.actionURL(q), &data); err != nil {
		return "", false, err
	}
	for _, page := range data.Query.Pages {
		return page.Extract, true, nil
	}
	return "", false, nil
}

// Summary fetches the REST summary for one page title.
func (c *WikipediaClient) Summary(ctx context.Context, title string) (WikiSummary, error) {
	var data struct {
		Title       string `json:"title"`
		Extract     string `json:"extract"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	endpoint := c.opts.SummaryURL + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	if err := c.getJSON(ctx, endpoint, &data); err != nil {
		return WikiSummary{}, err
	}
	return WikiSummary{
		Title:   llmutils.StringOrDefault(data.Title, title),
		Summary: data.Extract,
		URL:     data.ContentURLs.Desktop.Page,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// truncateRunes cuts s to n characters, appending "..." when it was cut.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// ---------------------------------------------------------------------------
// GetFactTool
// ---------------------------------------------------------------------------

// GetFactTool looks up a short factual summary on Wikipedia.
type GetFactTool struct {
	client *WikipediaClient
}

func NewGetFactTool(client *WikipediaClient) *GetFactTool {
	return &GetFactTool{client: client}
}

func (t *GetFactTool) Name() string { return string(ToolGetFact) }
func (t *GetFactTool) Description() string {
	return "Look up factual information from Wikipedia. Use it for facts about people, places, " +
		"countries or historical events and for data such as population or geography. " +
		"Do NOT use it for calculations, creative content or opinions."
}
func (t *GetFactTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Search query, e.g. \"Population of France\""
			}
		},
		"required": ["query"]
	}`)
}

func (t *GetFactTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query := llmutils.StringArg(params, "query")
	if query == "" {
		return "Error: query is required", nil
	}

	titles, err := t.client.Search(ctx, query, 1)
	if err != nil {
		return wikiErrorMessage(err), nil
	}
	if len(titles) == 0 {
		return fmt.Sprintf("No Wikipedia results found for '%s'.", query), nil
	}
	title := titles[0]

	extract, found, err := t.client.Extract(ctx, title)
	if err != nil {
		return wikiErrorMessage(err), nil
	}
	if !found {
		return fmt.Sprintf("Could not retrieve summary for '%s'.", title), nil
	}
	if extract == "" {
		return fmt.Sprintf("No summary available for '%s'.", title), nil
	}
	return truncateRunes(extract, t.client.opts.MaxChars), nil
}

func wikiErrorMessage(err error) string {
	if isTimeout(err) {
		return "Wikipedia request timed out. Please try again."
	}
	return "Wikipedia API error: " + err.Error()
}

// ---------------------------------------------------------------------------
// WikipediaSearchTool
// ---------------------------------------------------------------------------

// WikipediaSearchTool searches Wikipedia and fetches page summaries in parallel.
type WikipediaSearchTool struct {
	client *WikipediaClient
}

func NewWikipediaSearchTool(client *WikipediaClient) *WikipediaSearchTool {
	return &WikipediaSearchTool{client: client}
}

func (t *WikipediaSearchTool) Name() string { return string(ToolWikipediaSearch) }
func (t *WikipediaSearchTool) Description() string {
	return "Search Wikipedia for factual information. Use this when the user needs research, facts or background information."
}
func (t *WikipediaSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query"},
			"maxResults": {"type": "integer", "minimum": 1, "maximum": 10, "default": 3}
		},
		"required": ["query"]
	}`)
}

func (t *WikipediaSearchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query := llmutils.StringArg(params, "query")
	maxResults := llmutils.IntArg(params, "maxResults", 3)
	if maxResults < 1 {
		maxResults = 1
	}

	titles, err := t.client.Search(ctx, query, maxResults)
	if err != nil {
		return jsonResult(map[string]any{
			"success": false,
			"error":   err.Error(),
			"results": []WikiSummary{},
		}), nil
	}
	if len(titles) > maxResults {
		titles = titles[:maxResults]
	}

	results := make([]WikiSummary, len(titles))
	var g errgroup.Group
	for i, title := range titles {
		g.Go(func() error {
			s, err := t.client.Summary(ctx, title)
			if err != nil {
				slog.Debug("wikipedia summary failed", "title", title, "err", err)
				s = WikiSummary{Title: title, Summary: "Could not fetch summary"}
			}
			results[i] = s
			return nil
		})
	}
	_ = g.Wait()

	return jsonResult(map[string]any{
		"success": true,
		"results": results,
		"query":   query,
	}), nil
}
