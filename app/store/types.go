package store

import (
	"fmt"
	"time"
)

// AppendResult is the outcome of an append: a duplicate is a
// recognized outcome, not an error.
type AppendResult string

const (
	Accepted  AppendResult = "accepted"
	Duplicate AppendResult = "duplicate"
)

// Metadata is a summary recomputed from the store on every read, so
// manual edits to the file cannot cause drift. The store itself stays
// authoritative.
type Metadata struct {
	TotalEvents  int            `json:"total_events"`
	TotalFunding float64        `json:"total_funding"` // millions USD
	LastUpdated  *time.Time     `json:"last_updated,omitempty"`
	SectorCounts map[string]int `json:"sector_counts"`
	StageCounts  map[string]int `json:"stage_counts"`
}

// StoreLoadError signals an unreadable or corrupt store on load. It is
// fatal to the run: proceeding with an empty in-memory store would
// overwrite existing data on the next write.
type StoreLoadError struct {
	Path string
	Err  error
}

func (e *StoreLoadError) Error() string {
	return fmt.Sprintf("failed to load store %s: %v", e.Path, e.Err)
}

func (e *StoreLoadError) Unwrap() error {
	return e.Err
}
