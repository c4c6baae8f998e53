package analyses

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"career-gap-backend/internal/llm"
	"career-gap-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
	// AnalyzeGuard runs before the analyze handler, typically a rate limiter. Optional.
	AnalyzeGuard gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, analyzeGuard gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, AnalyzeGuard: analyzeGuard}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	analyze := []gin.HandlerFunc{h.analyze}
	if h.AnalyzeGuard != nil {
		analyze = append([]gin.HandlerFunc{h.AnalyzeGuard}, analyze...)
	}
	rg.POST("/analyze", analyze...)
	rg.GET("/stats", h.stats)
	rg.POST("/cleanup", h.cleanup)
}

type analyzeRequest struct {
	ResumeText         string `json:"resumeText"`
	JobDescriptionText string `json:"jobDescriptionText"`
}

type cleanupRequest struct {
	DaysOld json.RawMessage `json:"daysOld"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Validation failed", []FieldError{
			{Field: "body", Message: "request body must be a JSON object with string fields resumeText and jobDescriptionText"},
		}, map[string]any{"error": err.Error()})
		return
	}

	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))
	analysis, cached, err := h.Svc.Analyze(ctx, req.ResumeText, req.JobDescriptionText)
	if errors.Is(err, ErrDuplicateKey) {
		if existing, found := h.Svc.LookupExisting(ctx, req.ResumeText, req.JobDescriptionText); found {
			analysis, cached, err = existing, true, nil
		}
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.Set("cached", cached)
	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	respond.SuccessCached(c, status, cached, analysis)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, stats)
}

func (h *Handler) cleanup(c *gin.Context) {
	var req cleanupRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.Fail(c, http.StatusBadRequest, "Validation failed", []FieldError{
				{Field: "body", Message: "request body must be a JSON object"},
			}, map[string]any{"error": err.Error()})
			return
		}
	}
	daysOld, err := parseDaysOld(req.DaysOld)
	if err != nil {
		writeError(c, err)
		return
	}

	deleted, err := h.Svc.Cleanup(c.Request.Context(), daysOld)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"deletedCount": deleted})
}

// parseDaysOld accepts a JSON number or numeric string; absent or null means the default.
func parseDaysOld(raw json.RawMessage) (int, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return DefaultCleanupDays, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		trimmed = strings.TrimSpace(asString)
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || value < 0 || value != math.Trunc(value) || value > math.MaxInt32 {
		return 0, ErrInvalidDaysOld
	}
	return int(value), nil
}

func writeError(c *gin.Context, err error) {
	fields := map[string]any{"error": err.Error()}

	var validationErr *ValidationError
	var callErr *llm.CallError
	var storageErr *StorageError
	switch {
	case errors.As(err, &validationErr):
		respond.Fail(c, http.StatusBadRequest, "Validation failed", validationErr.Details, fields)
	case errors.Is(err, ErrInvalidDaysOld):
		respond.Fail(c, http.StatusBadRequest, "Validation failed", []FieldError{
			{Field: "daysOld", Message: ErrInvalidDaysOld.Error()},
		}, fields)
	case errors.Is(err, ErrDuplicateKey):
		respond.Fail(c, http.StatusConflict, "Analysis already in progress for this input, retry", nil, fields)
	case errors.As(err, &callErr), errors.Is(err, ErrProviderOutput):
		respond.Fail(c, http.StatusBadGateway, "AI provider failed", nil, fields)
	case errors.As(err, &storageErr):
		respond.Fail(c, http.StatusInternalServerError, "Storage failure", nil, fields)
	default:
		respond.Fail(c, http.StatusInternalServerError, "Internal server error", nil, fields)
	}
}
