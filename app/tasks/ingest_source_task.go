package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklsv/deal-comb/app/config"
	"github.com/mklsv/deal-comb/app/extract"
	"github.com/mklsv/deal-comb/app/store"
)

// RunSummary counts the terminal outcomes of one ingestion run. It is
// what gets surfaced instead of raw per-article errors.
type RunSummary struct {
	Total       int
	Skipped     int
	NotRelevant int
	Rejected    int
	Accepted    int
	Duplicates  int
	Failed      int
}

type IngestSourceTask struct {
	Task
	SourceConfig *config.SourceConfig
	sources      SourceClientInterface
	extractor    ExtractorInterface
	processor    ProcessorInterface
	dataStore    StoreInterface
	articleDelay time.Duration

	// Summary of the last Execute, for tests and callers that care.
	Summary RunSummary
}

func NewIngestSourceTask(sourceName string, sourceConfig *config.SourceConfig,
	sources SourceClientInterface, extractor ExtractorInterface,
	processor ProcessorInterface, dataStore StoreInterface,
	articleDelay time.Duration) *IngestSourceTask {
	return &IngestSourceTask{
		Task:         NewTask(TaskTypeIngestSource, sourceName),
		SourceConfig: sourceConfig,
		sources:      sources,
		extractor:    extractor,
		processor:    processor,
		dataStore:    dataStore,
		articleDelay: articleDelay,
	}
}

// Execute runs the batch loop for one source. Articles are processed
// sequentially with an inter-article delay to respect rate limits on
// the news site and the extraction service. A failure on one article
// never aborts the rest of the batch.
func (t *IngestSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	articles, err := t.sources.Fetch(ctx, t.SourceConfig)
	if err != nil {
		return fmt.Errorf("failed to fetch source: %w", err)
	}

	var summary RunSummary
	summary.Total = len(articles)

	for i, article := range articles {
		if i > 0 && t.articleDelay > 0 {
			select {
			case <-time.After(t.articleDelay):
			case <-ctx.Done():
				t.Summary = summary
				return ctx.Err()
			}
		}

		if t.dataStore.IsProcessed(article.URL) {
			summary.Skipped++
			continue
		}

		event, err := t.extractor.Extract(ctx, article)
		if err != nil {
			switch {
			case extract.IsNotRelevant(err):
				summary.NotRelevant++
				t.markProcessed(article.URL)
			default:
				// Skipped, not fatal: the URL stays unmarked so a later
				// run can retry it.
				summary.Failed++
				slog.Warn("Extraction failed, skipping article",
					"source", t.SourceName, "url", article.URL, "error", err)
			}
			continue
		}

		decision := t.processor.Check(event)
		if !decision.Accepted {
			summary.Rejected++
			slog.Info("Deal rejected by thesis",
				"source", t.SourceName, "url", article.URL,
				"reason", string(decision.Reason), "detail", decision.Detail)
			t.markProcessed(article.URL)
			continue
		}

		result, err := t.dataStore.Append(decision.Event)
		if err != nil {
			summary.Failed++
			slog.Error("Failed to store deal",
				"source", t.SourceName, "url", article.URL, "error", err)
			continue
		}

		t.markProcessed(article.URL)
		if result == store.Duplicate {
			summary.Duplicates++
			slog.Debug("Duplicate deal", "source", t.SourceName, "url", article.URL,
				"company", decision.Event.CompanyName)
		} else {
			summary.Accepted++
			slog.Info("Deal accepted", "source", t.SourceName,
				"deal", decision.Event.Summary(), "flagged", decision.Event.Flagged)
		}
	}

	t.Summary = summary

	slog.Info("Task completed",
		"type", "IngestSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"total", summary.Total,
		"skipped", summary.Skipped,
		"not_relevant", summary.NotRelevant,
		"rejected", summary.Rejected,
		"accepted", summary.Accepted,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed)

	return nil
}

func (t *IngestSourceTask) markProcessed(url string) {
	if err := t.dataStore.MarkProcessed(url); err != nil && !errors.Is(err, store.ErrNotLoaded) {
		slog.Warn("Failed to record processed URL", "url", url, "error", err)
	}
}
