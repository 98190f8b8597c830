package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mklsv/deal-comb/app/deal"
)

const (
	dealsFileName = "climate_funding.csv"
	urlsFileName  = "processed_urls.log"
)

// ErrNotLoaded is returned by writes attempted after a failed load.
var ErrNotLoaded = errors.New("store not loaded")

type dedupKey struct {
	name   string
	stage  string
	amount float64
}

// Manager exclusively owns the on-disk deal store and URL log. It keeps
// an in-memory mirror for reads and duplicate checks; every accepted
// append is persisted before it becomes visible.
type Manager struct {
	mu              sync.Mutex
	dealsPath       string
	urlsPath        string
	amountTolerance float64

	loaded bool
	events []deal.FundingEvent
	keys   []dedupKey
	byURL  map[string]bool
	seen   map[string]bool
}

// Open loads the store and URL log from dir, creating the directory and
// an empty store with a header row when absent. A corrupt or unreadable
// store yields a *StoreLoadError and a manager that refuses writes.
func Open(dir string, amountTolerance float64) (*Manager, error) {
	m := &Manager{
		dealsPath:       filepath.Join(dir, dealsFileName),
		urlsPath:        filepath.Join(dir, urlsFileName),
		amountTolerance: amountTolerance,
		byURL:           make(map[string]bool),
		seen:            make(map[string]bool),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StoreLoadError{Path: dir, Err: err}
	}

	if err := m.loadDeals(); err != nil {
		return nil, &StoreLoadError{Path: m.dealsPath, Err: err}
	}

	m.loadProcessedURLs()
	m.loaded = true

	return m, nil
}

func (m *Manager) loadDeals() error {
	f, err := os.Open(m.dealsPath)
	if os.IsNotExist(err) {
		return m.createEmptyStore()
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return fmt.Errorf("missing header row")
	}
	if err != nil {
		return err
	}
	if strings.Join(header, ",") != strings.Join(storeHeader, ",") {
		return fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}
		event, err := eventFromRow(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}
		m.remember(event)
	}

	return nil
}

func (m *Manager) createEmptyStore() error {
	f, err := os.OpenFile(m.dealsPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(storeHeader); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// loadProcessedURLs tolerates a missing or unreadable log: losing the
// seen-set only causes re-extraction, and the dedup check still
// protects the store.
func (m *Manager) loadProcessedURLs() {
	f, err := os.Open(m.urlsPath)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		slog.Warn("Could not load processed URLs log", "path", m.urlsPath, "error", err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url != "" {
			m.seen[url] = true
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("Error reading processed URLs log", "path", m.urlsPath, "error", err)
	}
}

func (m *Manager) remember(event deal.FundingEvent) {
	m.events = append(m.events, event)
	m.keys = append(m.keys, dedupKey{
		name:   deal.DedupName(event.CompanyName),
		stage:  event.FundingStage,
		amount: event.AmountRaised,
	})
	m.byURL[event.SourceURL] = true
}

// IsProcessed reports whether the URL has already been through the
// pipeline.
func (m *Manager) IsProcessed(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[url]
}

// MarkProcessed appends the URL to the log and marks it seen.
// Re-marking an already-seen URL is a no-op, not an error.
func (m *Manager) MarkProcessed(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return ErrNotLoaded
	}
	if m.seen[url] {
		return nil
	}

	f, err := os.OpenFile(m.urlsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open URL log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, url); err != nil {
		return fmt.Errorf("failed to write URL log: %w", err)
	}

	m.seen[url] = true
	return nil
}

// Append checks the store for a duplicate of event and, if none is
// found, persists it. The dedup key is an identical source URL, or the
// same normalized company name and stage with an amount inside the
// configured tolerance.
func (m *Manager) Append(event deal.FundingEvent) (AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return "", ErrNotLoaded
	}
	if event.CompanyName == "" {
		return "", fmt.Errorf("refusing to store event with blank company name")
	}
	if event.SourceURL == "" {
		return "", fmt.Errorf("refusing to store event with blank source URL")
	}

	if m.isDuplicate(event) {
		return Duplicate, nil
	}

	f, err := os.OpenFile(m.dealsPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rowFromEvent(event)); err != nil {
		return "", fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush row: %w", err)
	}

	m.remember(event)
	return Accepted, nil
}

func (m *Manager) isDuplicate(event deal.FundingEvent) bool {
	if m.byURL[event.SourceURL] {
		return true
	}

	key := dedupKey{
		name:   deal.DedupName(event.CompanyName),
		stage:  event.FundingStage,
		amount: event.AmountRaised,
	}
	for _, existing := range m.keys {
		if existing.name == key.name && existing.stage == key.stage &&
			math.Abs(existing.amount-key.amount) <= m.amountTolerance {
			return true
		}
	}
	return false
}

// Events returns a copy of the persisted events in store order.
func (m *Manager) Events() []deal.FundingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]deal.FundingEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Metadata recomputes summary statistics from the in-memory mirror.
func (m *Manager) Metadata() Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()

	md := Metadata{
		TotalEvents:  len(m.events),
		SectorCounts: make(map[string]int),
		StageCounts:  make(map[string]int),
	}

	for _, e := range m.events {
		md.TotalFunding += e.AmountRaised
		md.SectorCounts[e.Subsector]++
		md.StageCounts[e.FundingStage]++
		if md.LastUpdated == nil || e.ObservedAt.After(*md.LastUpdated) {
			t := e.ObservedAt
			md.LastUpdated = &t
		}
	}

	return md
}
