package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ai-assistant-be/pkg/store"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const (
	crawlBodyLimit = 2 << 20 // 2MB
	crawlUserAgent = "Mozilla/5.0 (compatible; ai-assistant-be/1.0)"
)

var (
	multiSpacePattern   = regexp.MustCompile(`[ \t]+`)
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
)

// HTMLCrawler fetches result pages and swaps the snippet for readable page text.
type HTMLCrawler struct {
	client   *http.Client
	maxChars int
	logger   *zap.Logger
}

func NewHTMLCrawler(timeout time.Duration, maxChars int, logger *zap.Logger) *HTMLCrawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxChars <= 0 {
		maxChars = 8000
	}
	return &HTMLCrawler{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
		logger:   logger,
	}
}

// CrawlTopURLs fetches the first maxURLs results that carry a URL. A page that
// fails to load keeps its snippet; only a cancelled context is reported.
func (c *HTMLCrawler) CrawlTopURLs(ctx context.Context, results []store.SearchResult, maxURLs int) ([]store.SearchResult, error) {
	out := make([]store.SearchResult, len(results))
	copy(out, results)

	var targets []int
	for i, r := range out {
		if len(targets) == maxURLs {
			break
		}
		if r.URL != "" {
			targets = append(targets, i)
		}
	}

	var g errgroup.Group
	g.SetLimit(4)
	for _, idx := range targets {
		idx := idx
		g.Go(func() error {
			text, err := c.fetch(ctx, out[idx].URL)
			if err != nil {
				c.logger.Debug("crawl failed", zap.String("url", out[idx].URL), zap.Error(err))
				return nil
			}
			if len(text) > len(out[idx].Content) {
				out[idx].Content = text
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTMLCrawler) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", crawlUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, crawlBodyLimit))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var text string
	if strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		text = string(body)
	} else {
		text, err = ExtractText(string(body))
		if err != nil {
			return "", err
		}
	}
	return truncateRunes(text, c.maxChars), nil
}

// ExtractText turns an HTML document into plain paragraphs, skipping chrome
// such as navigation, scripts and footers.
func ExtractText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	walk(doc, &sb, 0)

	s := multiSpacePattern.ReplaceAllString(sb.String(), " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = multiNewlinePattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s), nil
}

func walk(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 60 {
		return
	}
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header", "form", "aside":
			return
		case "h1", "h2", "h3", "h4", "p", "div", "section", "article", "li", "tr":
			sb.WriteString("\n")
		case "br":
			sb.WriteString("\n")
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, sb, depth+1)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2", "h3", "h4", "p", "li":
			sb.WriteString("\n")
		}
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
