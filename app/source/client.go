package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/mklsv/deal-comb/app/config"
)

// Client fetches candidate articles from configured news sources.
type Client struct {
	httpClient *http.Client
	feedParser *gofeed.Parser
	userAgent  string
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		feedParser: gofeed.NewParser(),
		userAgent:  userAgent,
	}
}

// Fetch returns articles from one source, newest first as delivered by
// the source, capped at the source's max_items. A failure fetching an
// individual article body is logged and skipped; only a failure on the
// source index itself is an error.
func (c *Client) Fetch(ctx context.Context, sourceConfig *config.SourceConfig) ([]Article, error) {
	var articles []Article
	var err error

	switch sourceConfig.Source.Kind {
	case "rss":
		articles, err = c.fetchFeed(ctx, sourceConfig)
	case "html":
		articles, err = c.fetchIndex(ctx, sourceConfig)
	default:
		return nil, fmt.Errorf("unknown source kind: %s", sourceConfig.Source.Kind)
	}
	if err != nil {
		return nil, err
	}

	if max := sourceConfig.Settings.MaxItems; max > 0 && len(articles) > max {
		articles = articles[:max]
	}

	out := make([]Article, 0, len(articles))
	for _, article := range articles {
		if article.Content == "" {
			body, err := c.fetchBody(ctx, sourceConfig, article.URL)
			if err != nil {
				slog.Warn("Skipping article, failed to fetch body",
					"source", sourceConfig.Name, "url", article.URL, "error", err)
				continue
			}
			article.Content = body
		}
		out = append(out, article)
	}

	return out, nil
}

func (c *Client) fetchFeed(ctx context.Context, sourceConfig *config.SourceConfig) ([]Article, error) {
	data, err := c.fetch(ctx, sourceConfig, sourceConfig.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := c.feedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		article := Article{
			URL:         item.Link,
			Title:       item.Title,
			Source:      sourceConfig.Name,
			PublishedAt: item.PublishedParsed,
		}
		// Prefer content carried in the feed itself over a second fetch.
		if item.Content != "" {
			article.Content = stripTags(item.Content)
		} else if item.Description != "" {
			article.Content = stripTags(item.Description)
		}
		articles = append(articles, article)
	}

	return articles, nil
}

func (c *Client) fetchIndex(ctx context.Context, sourceConfig *config.SourceConfig) ([]Article, error) {
	data, err := c.fetch(ctx, sourceConfig, sourceConfig.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index page: %w", err)
	}

	base, err := url.Parse(sourceConfig.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %w", err)
	}

	var articles []Article
	seen := make(map[string]bool)
	doc.Find(sourceConfig.Source.LinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		link := base.ResolveReference(ref).String()
		if seen[link] {
			return
		}
		seen[link] = true
		articles = append(articles, Article{
			URL:    link,
			Title:  strings.TrimSpace(sel.Text()),
			Source: sourceConfig.Name,
		})
	})

	return articles, nil
}

// fetchBody pulls an article page and extracts its readable text.
func (c *Client) fetchBody(ctx context.Context, sourceConfig *config.SourceConfig, articleURL string) (string, error) {
	data, err := c.fetch(ctx, sourceConfig, articleURL)
	if err != nil {
		return "", err
	}

	parsedURL, err := url.Parse(articleURL)
	if err != nil {
		return "", fmt.Errorf("invalid article URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	return text, nil
}

func (c *Client) fetch(ctx context.Context, sourceConfig *config.SourceConfig, fetchURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, sourceConfig.Settings.GetTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// stripTags flattens feed-provided HTML fragments to plain text.
func stripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}
