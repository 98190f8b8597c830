package tasks

import (
	"context"
	"time"

	"github.com/mklsv/deal-comb/app/config"
	"github.com/mklsv/deal-comb/app/deal"
	"github.com/mklsv/deal-comb/app/process"
	"github.com/mklsv/deal-comb/app/source"
	"github.com/mklsv/deal-comb/app/store"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSourceName() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

// TaskSchedulerInterface defines the interface for task scheduling
// operations. Used by the main application and the API handlers to
// manage background ingestion.
// Example usage:
//
//	scheduler := NewScheduler(configs, sourceClient, extractor, processor, dataStore)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewIngestSourceTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// SourceClientInterface yields candidate articles from one source.
type SourceClientInterface interface {
	Fetch(ctx context.Context, sourceConfig *config.SourceConfig) ([]source.Article, error)
}

// ExtractorInterface turns one article into zero-or-one candidate
// deals.
type ExtractorInterface interface {
	Extract(ctx context.Context, article source.Article) (deal.FundingEvent, error)
}

// ProcessorInterface applies the investment thesis to a candidate.
type ProcessorInterface interface {
	Check(event deal.FundingEvent) process.Decision
}

// StoreInterface is the slice of the data manager the ingest pipeline
// uses.
type StoreInterface interface {
	IsProcessed(url string) bool
	MarkProcessed(url string) error
	Append(event deal.FundingEvent) (store.AppendResult, error)
}
