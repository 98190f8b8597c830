package tasks

import (
	"context"
	"fmt"
	"testing"

	"github.com/mklsv/deal-comb/app/config"
	"github.com/mklsv/deal-comb/app/deal"
	"github.com/mklsv/deal-comb/app/extract"
	"github.com/mklsv/deal-comb/app/process"
	"github.com/mklsv/deal-comb/app/source"
	"github.com/mklsv/deal-comb/app/store"
)

type fakeSourceClient struct {
	articles []source.Article
	err      error
}

func (c *fakeSourceClient) Fetch(ctx context.Context, sourceConfig *config.SourceConfig) ([]source.Article, error) {
	return c.articles, c.err
}

type fakeExtractor struct {
	// results maps article URL to a scripted outcome.
	events map[string]deal.FundingEvent
	errs   map[string]error
	calls  int
}

func (e *fakeExtractor) Extract(ctx context.Context, article source.Article) (deal.FundingEvent, error) {
	e.calls++
	if err, ok := e.errs[article.URL]; ok {
		return deal.FundingEvent{}, err
	}
	if event, ok := e.events[article.URL]; ok {
		return event, nil
	}
	return deal.FundingEvent{}, &extract.ExtractionError{Kind: extract.KindNotRelevant, URL: article.URL}
}

type fakeStore struct {
	processed map[string]bool
	appended  []deal.FundingEvent
	result    store.AppendResult
	appendErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{processed: make(map[string]bool), result: store.Accepted}
}

func (s *fakeStore) IsProcessed(url string) bool { return s.processed[url] }

func (s *fakeStore) MarkProcessed(url string) error {
	s.processed[url] = true
	return nil
}

func (s *fakeStore) Append(event deal.FundingEvent) (store.AppendResult, error) {
	if s.appendErr != nil {
		return "", s.appendErr
	}
	s.appended = append(s.appended, event)
	return s.result, nil
}

func enabledConfig() *config.SourceConfig {
	return &config.SourceConfig{
		Name:     "example",
		Source:   config.SourceInfo{URL: "https://example.com/feed", Kind: "rss"},
		Settings: config.SourceSettings{Enabled: true, MaxItems: 50, Timeout: 30},
	}
}

func testProcessor() ProcessorInterface {
	return process.NewProcessor(config.DefaultThesis())
}

func targetEvent(url string) deal.FundingEvent {
	return deal.FundingEvent{
		CompanyName:  "GridFlow",
		Subsector:    "Grid Modernization",
		FundingStage: "Seed",
		AmountRaised: 5.0,
		SourceURL:    url,
		Confidence:   0.9,
	}
}

func article(url string) source.Article {
	return source.Article{URL: url, Title: "Title", Content: "Content", Source: "example"}
}

func TestIngestSourceTask_Execute_MixedBatch(t *testing.T) {
	articles := []source.Article{
		article("https://example.com/a"),
		article("https://example.com/b"),
		article("https://example.com/c"),
	}

	offThesis := targetEvent("https://example.com/b")
	offThesis.Subsector = "Solar"

	extractor := &fakeExtractor{
		events: map[string]deal.FundingEvent{
			"https://example.com/a": targetEvent("https://example.com/a"),
			"https://example.com/b": offThesis,
		},
		// c falls through to not-relevant.
	}
	dataStore := newFakeStore()

	task := NewIngestSourceTask("example", enabledConfig(),
		&fakeSourceClient{articles: articles}, extractor, testProcessor(), dataStore, 0)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	s := task.Summary
	if s.Total != 3 {
		t.Errorf("Expected total 3, got %d", s.Total)
	}
	if s.Accepted != 1 {
		t.Errorf("Expected 1 accepted, got %d", s.Accepted)
	}
	if s.Rejected != 1 {
		t.Errorf("Expected 1 rejected, got %d", s.Rejected)
	}
	if s.NotRelevant != 1 {
		t.Errorf("Expected 1 not relevant, got %d", s.NotRelevant)
	}

	if len(dataStore.appended) != 1 {
		t.Fatalf("Expected 1 stored deal, got %d", len(dataStore.appended))
	}
	if dataStore.appended[0].CompanyName != "GridFlow" {
		t.Errorf("Expected stored deal for GridFlow, got %q", dataStore.appended[0].CompanyName)
	}

	// Every terminal outcome marks the URL processed.
	for _, url := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"} {
		if !dataStore.processed[url] {
			t.Errorf("Expected %s to be marked processed", url)
		}
	}
}

func TestIngestSourceTask_Execute_SkipsProcessedURLs(t *testing.T) {
	extractor := &fakeExtractor{}
	dataStore := newFakeStore()
	dataStore.processed["https://example.com/a"] = true

	task := NewIngestSourceTask("example", enabledConfig(),
		&fakeSourceClient{articles: []source.Article{article("https://example.com/a")}},
		extractor, testProcessor(), dataStore, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if task.Summary.Skipped != 1 {
		t.Errorf("Expected 1 skipped, got %d", task.Summary.Skipped)
	}
	if extractor.calls != 0 {
		t.Errorf("Expected no extraction for processed URL, got %d calls", extractor.calls)
	}
}

func TestIngestSourceTask_Execute_ExtractionFailureContinues(t *testing.T) {
	articles := []source.Article{
		article("https://example.com/broken"),
		article("https://example.com/good"),
	}

	extractor := &fakeExtractor{
		errs: map[string]error{
			"https://example.com/broken": &extract.ExtractionError{
				Kind: extract.KindUnavailable,
				URL:  "https://example.com/broken",
				Err:  fmt.Errorf("timeout"),
			},
		},
		events: map[string]deal.FundingEvent{
			"https://example.com/good": targetEvent("https://example.com/good"),
		},
	}
	dataStore := newFakeStore()

	task := NewIngestSourceTask("example", enabledConfig(),
		&fakeSourceClient{articles: articles}, extractor, testProcessor(), dataStore, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if task.Summary.Failed != 1 {
		t.Errorf("Expected 1 failed, got %d", task.Summary.Failed)
	}
	if task.Summary.Accepted != 1 {
		t.Errorf("Expected batch to continue past failure, got %d accepted", task.Summary.Accepted)
	}

	// A failed extraction stays unmarked so a later run can retry it.
	if dataStore.processed["https://example.com/broken"] {
		t.Errorf("Expected failed URL to stay unprocessed")
	}
	if !dataStore.processed["https://example.com/good"] {
		t.Errorf("Expected successful URL to be marked processed")
	}
}

func TestIngestSourceTask_Execute_Duplicate(t *testing.T) {
	extractor := &fakeExtractor{
		events: map[string]deal.FundingEvent{
			"https://example.com/a": targetEvent("https://example.com/a"),
		},
	}
	dataStore := newFakeStore()
	dataStore.result = store.Duplicate

	task := NewIngestSourceTask("example", enabledConfig(),
		&fakeSourceClient{articles: []source.Article{article("https://example.com/a")}},
		extractor, testProcessor(), dataStore, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if task.Summary.Duplicates != 1 {
		t.Errorf("Expected 1 duplicate, got %d", task.Summary.Duplicates)
	}
	if task.Summary.Accepted != 0 {
		t.Errorf("Expected 0 accepted, got %d", task.Summary.Accepted)
	}
	if !dataStore.processed["https://example.com/a"] {
		t.Errorf("Expected duplicate URL to be marked processed")
	}
}

func TestIngestSourceTask_Execute_StoreErrorLeavesURLRetryable(t *testing.T) {
	extractor := &fakeExtractor{
		events: map[string]deal.FundingEvent{
			"https://example.com/a": targetEvent("https://example.com/a"),
		},
	}
	dataStore := newFakeStore()
	dataStore.appendErr = fmt.Errorf("disk full")

	task := NewIngestSourceTask("example", enabledConfig(),
		&fakeSourceClient{articles: []source.Article{article("https://example.com/a")}},
		extractor, testProcessor(), dataStore, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if task.Summary.Failed != 1 {
		t.Errorf("Expected 1 failed, got %d", task.Summary.Failed)
	}
	if dataStore.processed["https://example.com/a"] {
		t.Errorf("Expected URL to stay unprocessed after store error")
	}
}

func TestIngestSourceTask_Execute_DisabledSource(t *testing.T) {
	sourceConfig := enabledConfig()
	sourceConfig.Settings.Enabled = false

	client := &fakeSourceClient{err: fmt.Errorf("should not be called")}
	task := NewIngestSourceTask("example", sourceConfig,
		client, &fakeExtractor{}, testProcessor(), newFakeStore(), 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute returned error for disabled source: %v", err)
	}
}

func TestIngestSourceTask_Execute_FetchError(t *testing.T) {
	client := &fakeSourceClient{err: fmt.Errorf("connection refused")}
	task := NewIngestSourceTask("example", enabledConfig(),
		client, &fakeExtractor{}, testProcessor(), newFakeStore(), 0)

	if err := task.Execute(context.Background()); err == nil {
		t.Error("Expected error when fetch fails, so the scheduler can retry the task")
	}
}

func TestIngestSourceTask_Execute_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewIngestSourceTask("example", enabledConfig(),
		&fakeSourceClient{}, &fakeExtractor{}, testProcessor(), newFakeStore(), 0)

	if err := task.Execute(ctx); err == nil {
		t.Error("Expected context error")
	}
}

func TestTask_Retry(t *testing.T) {
	task := NewTask(TaskTypeIngestSource, "example")

	if !task.CanRetry() {
		t.Error("Fresh task should be retryable")
	}
	for i := 0; i < DefaultMaxRetries; i++ {
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Task should not be retryable after exhausting retries")
	}
	if task.GetRetryCount() != DefaultMaxRetries {
		t.Errorf("Expected retry count %d, got %d", DefaultMaxRetries, task.GetRetryCount())
	}
}
