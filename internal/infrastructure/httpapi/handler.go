package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/usecase"
)

// Handler exposes the editorial action interface and the per-stage
// pipeline triggers over HTTP.
type Handler struct {
	cycles    *usecase.Cycles
	editorial *usecase.Editorial
	pipeline  *usecase.Pipeline
	articles  articleReader
	logger    *slog.Logger
}

// articleReader is the read-only slice of the article repository the
// digest preview needs.
type articleReader interface {
	ArticlesForCycle(ctx context.Context, cycleID int64) ([]domain.Article, error)
}

// NewHandler wires the usecase services.
func NewHandler(cycles *usecase.Cycles, editorial *usecase.Editorial, pipeline *usecase.Pipeline, articles articleReader, logger *slog.Logger) *Handler {
	return &Handler{
		cycles:    cycles,
		editorial: editorial,
		pipeline:  pipeline,
		articles:  articles,
		logger:    logger,
	}
}

// CreateCycle starts a draft cycle for a target date.
func (h *Handler) CreateCycle(c *gin.Context) {
	var input struct {
		TargetDate string `json:"target_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}

	date, err := time.Parse("2006-01-02", input.TargetDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
		return
	}

	cycle, err := h.cycles.CreateForDate(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cycle)
}

// GetCycle returns one cycle.
func (h *Handler) GetCycle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cycle, err := h.cycles.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cycle)
}

// ResetCycle cascades deletion of everything the cycle owns.
func (h *Handler) ResetCycle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.cycles.Reset(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// SetSubject updates the digest subject line.
func (h *Handler) SetSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Subject string `json:"subject" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}
	if err := h.cycles.SetSubject(c.Request.Context(), id, input.Subject); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// SetTopCount updates the per-cycle selection target.
func (h *Handler) SetTopCount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		TopCount int `json:"top_count" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}
	if err := h.cycles.SetTopCount(c.Request.Context(), id, input.TopCount); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Ingest triggers the ingestion stage for a cycle.
func (h *Handler) Ingest(c *gin.Context) {
	h.runStage(c, h.pipeline.IngestCycle)
}

// Rate triggers the rating stage for a cycle.
func (h *Handler) Rate(c *gin.Context) {
	h.runStage(c, h.pipeline.RateCycle)
}

// Dedup triggers the topic-deduplication stage for a cycle.
func (h *Handler) Dedup(c *gin.Context) {
	h.runStage(c, h.pipeline.DedupCycle)
}

// Select triggers the selection stage for a cycle.
func (h *Handler) Select(c *gin.Context) {
	h.runStage(c, h.pipeline.SelectCycle)
}

// RecomputeTotals recalculates rating totals from stored criterion rows.
func (h *Handler) RecomputeTotals(c *gin.Context) {
	h.runStage(c, h.pipeline.RecomputeTotals)
}

// Transition moves the cycle through its lifecycle.
func (h *Handler) Transition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}
	if err := h.editorial.Transition(c.Request.Context(), id, domain.CycleStatus(input.Status)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": input.Status})
}

// Skip toggles an article in or out of the active ordering.
func (h *Handler) Skip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Skipped  *bool `json:"skipped" binding:"required"`
		Position *int  `json:"position"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}
	if err := h.editorial.Skip(c.Request.Context(), id, *input.Skipped, input.Position); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Reorder moves an article to a new position in the active ordering.
func (h *Handler) Reorder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Position int `json:"position" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}
	if err := h.editorial.Reorder(c.Request.Context(), id, input.Position); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reordered"})
}

// Digest renders the cycle's current ordering as plain text.
func (h *Handler) Digest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cycle, err := h.cycles.Get(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	articles, err := h.articles.ArticlesForCycle(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.String(http.StatusOK, usecase.BuildDigestMessage(cycle, articles))
}

func (h *Handler) runStage(c *gin.Context, stage func(ctx context.Context, cycleID int64) (domain.StageReport, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	report, err := stage(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrAlreadySelected),
		errors.Is(err, usecase.ErrCycleTerminal),
		errors.Is(err, usecase.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, usecase.ErrPositionOutOfRange),
		errors.Is(err, usecase.ErrNoOrdering),
		errors.Is(err, usecase.ErrNoCriteria):
		status = http.StatusBadRequest
	}

	if h.logger != nil && status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
