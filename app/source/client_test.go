package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mklsv/deal-comb/app/config"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Climate News</title>
    <item>
      <title>GridFlow raises $12M Series A</title>
      <link>https://example.com/gridflow</link>
      <description>&lt;p&gt;GridFlow announced a &lt;b&gt;$12M&lt;/b&gt; Series A.&lt;/p&gt;</description>
      <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>CarbonLock seed round</title>
      <link>https://example.com/carbonlock</link>
      <description>CarbonLock raised a seed round.</description>
    </item>
  </channel>
</rss>`

func rssConfig(url string) *config.SourceConfig {
	return &config.SourceConfig{
		Name:     "climate-news",
		Source:   config.SourceInfo{URL: url, Kind: "rss"},
		Settings: config.SourceSettings{Enabled: true, MaxItems: 50, Timeout: 5},
	}
}

func TestClient_Fetch_RSS(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "Deal Comb/1.0")
	articles, err := client.Fetch(context.Background(), rssConfig(server.URL))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotUserAgent != "Deal Comb/1.0" {
		t.Errorf("Expected configured user agent, got %q", gotUserAgent)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.URL != "https://example.com/gridflow" {
		t.Errorf("Unexpected URL: %q", first.URL)
	}
	if first.Title != "GridFlow raises $12M Series A" {
		t.Errorf("Unexpected title: %q", first.Title)
	}
	if first.Content != "GridFlow announced a $12M Series A." {
		t.Errorf("Expected HTML stripped from description, got %q", first.Content)
	}
	if first.Source != "climate-news" {
		t.Errorf("Expected source name from config, got %q", first.Source)
	}
	if first.PublishedAt == nil {
		t.Errorf("Expected published date to be parsed")
	}
}

func TestClient_Fetch_RSS_MaxItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	sourceConfig := rssConfig(server.URL)
	sourceConfig.Settings.MaxItems = 1

	client := NewClient(server.Client(), "test")
	articles, err := client.Fetch(context.Background(), sourceConfig)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("Expected 1 article with max_items=1, got %d", len(articles))
	}
}

func TestClient_Fetch_RSS_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test")
	if _, err := client.Fetch(context.Background(), rssConfig(server.URL)); err == nil {
		t.Error("Expected error for HTTP 500 on the source index")
	}
}

func TestClient_Fetch_HTMLIndex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<article><h2><a href="/news/gridflow">GridFlow raises $12M</a></h2></article>
			<article><h2><a href="/news/carbonlock">CarbonLock seed round</a></h2></article>
			<article><h2><a href="/news/gridflow">GridFlow raises $12M</a></h2></article>
		</body></html>`))
	})
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article>
			<p>The startup announced a funding round led by Energy Ventures.
			The capital will fund grid modernization pilots across three states.</p>
		</article></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sourceConfig := &config.SourceConfig{
		Name: "newsroom",
		Source: config.SourceInfo{
			URL:          server.URL + "/news",
			Kind:         "html",
			LinkSelector: "article h2 a",
		},
		Settings: config.SourceSettings{Enabled: true, MaxItems: 50, Timeout: 5},
	}

	client := NewClient(server.Client(), "test")
	articles, err := client.Fetch(context.Background(), sourceConfig)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	// Duplicate link collapsed.
	if len(articles) != 2 {
		t.Fatalf("Expected 2 unique articles, got %d", len(articles))
	}
	if articles[0].URL != server.URL+"/news/gridflow" {
		t.Errorf("Expected resolved absolute URL, got %q", articles[0].URL)
	}
	if articles[0].Title != "GridFlow raises $12M" {
		t.Errorf("Unexpected title: %q", articles[0].Title)
	}
	// Index pages carry no body, so article pages are fetched.
	if articles[0].Content == "" {
		t.Errorf("Expected article body to be fetched for index sources")
	}
}

func TestClient_Fetch_UnknownKind(t *testing.T) {
	sourceConfig := rssConfig("https://example.com/feed")
	sourceConfig.Source.Kind = "gopher"

	client := NewClient(http.DefaultClient, "test")
	if _, err := client.Fetch(context.Background(), sourceConfig); err == nil {
		t.Error("Expected error for unknown source kind")
	}
}

func TestClient_Fetch_SkipsUnreachableArticleBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a class="story" href="/news/ok">Reachable</a>
			<a class="story" href="/news/gone">Unreachable</a>
		</body></html>`))
	})
	mux.HandleFunc("/news/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article><p>A reachable story about a
			funding round with enough text to extract.</p></article></body></html>`))
	})
	mux.HandleFunc("/news/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sourceConfig := &config.SourceConfig{
		Name: "newsroom",
		Source: config.SourceInfo{
			URL:          server.URL + "/news",
			Kind:         "html",
			LinkSelector: "a.story",
		},
		Settings: config.SourceSettings{Enabled: true, MaxItems: 50, Timeout: 5},
	}

	client := NewClient(server.Client(), "test")
	articles, err := client.Fetch(context.Background(), sourceConfig)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected unreachable article skipped, got %d articles", len(articles))
	}
	if articles[0].URL != server.URL+"/news/ok" {
		t.Errorf("Expected the reachable article, got %q", articles[0].URL)
	}
}
