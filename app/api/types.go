package api

import (
	"time"

	"github.com/mklsv/deal-comb/app/config"
	"github.com/mklsv/deal-comb/app/deal"
	"github.com/mklsv/deal-comb/app/store"
	"github.com/mklsv/deal-comb/app/tasks"
)

type StoreInterface interface {
	Events() []deal.FundingEvent
	Metadata() store.Metadata
	IsProcessed(url string) bool
	MarkProcessed(url string) error
	Append(event deal.FundingEvent) (store.AppendResult, error)
}

var _ StoreInterface = (*store.Manager)(nil)

type Handler struct {
	configs      map[string]*config.SourceConfig
	thesis       *config.Thesis
	dataStore    StoreInterface
	sources      tasks.SourceClientInterface
	extractor    tasks.ExtractorInterface
	processor    tasks.ProcessorInterface
	scheduler    tasks.TaskSchedulerInterface
	articleDelay time.Duration
}
