package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mklsv/deal-comb/app/config"
	"github.com/mklsv/deal-comb/app/deal"
	"github.com/mklsv/deal-comb/app/forecast"
	"github.com/mklsv/deal-comb/app/store"
	"github.com/mklsv/deal-comb/app/tasks"
)

func NewHandler(configs map[string]*config.SourceConfig, thesis *config.Thesis,
	dataStore StoreInterface, sources tasks.SourceClientInterface,
	extractor tasks.ExtractorInterface, processor tasks.ProcessorInterface,
	scheduler tasks.TaskSchedulerInterface, articleDelay time.Duration) *Handler {
	return &Handler{
		configs:      configs,
		thesis:       thesis,
		dataStore:    dataStore,
		sources:      sources,
		extractor:    extractor,
		processor:    processor,
		scheduler:    scheduler,
		articleDelay: articleDelay,
	}
}

func (h *Handler) GetDeals(c *gin.Context) {
	sector := c.Query("sector")
	stage := c.Query("stage")

	var flagged *bool
	if raw := c.Query("flagged"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flagged parameter"})
			return
		}
		flagged = &v
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = v
	}

	events := h.dataStore.Events()
	deals := make([]deal.FundingEvent, 0, len(events))
	for _, e := range events {
		if sector != "" && e.Subsector != sector {
			continue
		}
		if stage != "" && e.FundingStage != stage {
			continue
		}
		if flagged != nil && e.Flagged != *flagged {
			continue
		}
		deals = append(deals, e)
	}

	total := len(deals)
	if limit > 0 && len(deals) > limit {
		// Newest entries win: the store appends in arrival order.
		deals = deals[len(deals)-limit:]
	}

	c.JSON(http.StatusOK, gin.H{
		"deals": deals,
		"total": total,
	})
}

func (h *Handler) GetMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, h.dataStore.Metadata())
}

func (h *Handler) GetForecast(c *gin.Context) {
	opts := forecast.Options{
		Sector: c.Query("sector"),
		Stage:  c.Query("stage"),
	}

	if raw := c.Query("periods"); raw != "" {
		periods, err := strconv.Atoi(raw)
		if err != nil || periods < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid periods parameter"})
			return
		}
		opts.Periods = periods
	}

	c.JSON(http.StatusOK, forecast.Forecast(h.dataStore.Events(), opts))
}

func (h *Handler) GetGaps(c *gin.Context) {
	window := forecast.DefaultGapWindow
	if raw := c.Query("window_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid window_days parameter"})
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	signals := forecast.Gaps(h.dataStore.Events(), time.Now().UTC(), window)
	c.JSON(http.StatusOK, gin.H{
		"gaps":  signals,
		"total": len(signals),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	md := h.dataStore.Metadata()
	health["deals"] = md.TotalEvents
	health["loaded_sources"] = len(h.configs)

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	md := h.dataStore.Metadata()

	stats := map[string]interface{}{
		"total_deals":           md.TotalEvents,
		"total_funding":         md.TotalFunding,
		"sectors":               md.SectorCounts,
		"stages":                md.StageCounts,
		"target_subsectors":     h.thesis.TargetSubsectors,
		"target_stages":         h.thesis.TargetStages,
		"amount_range_millions": []float64{h.thesis.MinAmount, h.thesis.MaxAmount},
	}
	if md.LastUpdated != nil {
		stats["last_updated"] = md.LastUpdated.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	sources := make([]map[string]interface{}, 0, len(h.configs))

	for name, sourceConfig := range h.configs {
		sources = append(sources, map[string]interface{}{
			"name":             name,
			"url":              sourceConfig.Source.URL,
			"kind":             sourceConfig.Source.Kind,
			"enabled":          sourceConfig.Settings.Enabled,
			"max_items":        sourceConfig.Settings.MaxItems,
			"refresh_interval": sourceConfig.Settings.GetRefreshInterval().String(),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

// APIAddDeal accepts a manually reported deal. The payload goes through
// the same validation and duplicate checks as extracted deals; the
// thesis filter is skipped on the assumption that a manual entry is
// deliberate.
func (h *Handler) APIAddDeal(c *gin.Context) {
	var raw deal.RawEvent
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if raw.Confidence == 0 {
		raw.Confidence = 1.0
	}

	event, err := deal.NewFundingEvent(raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	result, err := h.dataStore.Append(event)
	if err != nil {
		slog.Error("Store error", "operation", "append_deal", "company", event.CompanyName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store deal"})
		return
	}

	if err := h.dataStore.MarkProcessed(event.SourceURL); err != nil {
		slog.Warn("Could not mark URL processed", "url", event.SourceURL, "error", err)
	}

	status := http.StatusCreated
	if result == store.Duplicate {
		status = http.StatusOK
	}

	c.JSON(status, gin.H{
		"result": string(result),
		"deal":   event,
	})
}

func (h *Handler) APIIngestSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	sourceConfig, ok := h.configs[name]
	if !ok {
		slog.Error("Source configuration not found", "source", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	if h.scheduler == nil || h.extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Ingestion disabled",
			"message": "Extraction service is not configured (GEMINI_API_KEY not set)",
		})
		return
	}

	ingestTask := tasks.NewIngestSourceTask(name, sourceConfig,
		h.sources, h.extractor, h.processor, h.dataStore, h.articleDelay)
	if err := h.scheduler.EnqueueTask(ingestTask); err != nil {
		slog.Error("Error enqueueing ingest task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue ingest task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Ingest task enqueued successfully",
		"source": gin.H{
			"name": name,
			"url":  sourceConfig.Source.URL,
		},
		"task": gin.H{
			"id":   ingestTask.ID,
			"type": ingestTask.Type,
		},
	})
}
