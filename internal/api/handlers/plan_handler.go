package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/masalahub/kitchenplan/internal/domain"
	"github.com/masalahub/kitchenplan/internal/service"
)

type PlanHandler struct {
	service *service.PlanService
}

func NewPlanHandler(service *service.PlanService) *PlanHandler {
	return &PlanHandler{service: service}
}

func (h *PlanHandler) parseFilter(c *gin.Context) domain.PlanFilter {
	filter := domain.PlanFilter{
		Timeframe: domain.ParseTimeframe(c.DefaultQuery("timeframe", "today")),
	}

	if location := strings.TrimSpace(c.Query("location")); location != "" && !strings.EqualFold(location, "all") {
		filter.Location = location
	}

	if critical, err := strconv.ParseBool(c.DefaultQuery("critical_only", "false")); err == nil {
		filter.CriticalOnly = critical
	}

	if priority, ok := domain.ParsePriority(c.Query("priority")); ok {
		filter.MinPriority = priority
	}

	return filter
}

// GetPlan returns the ranked cooking plan for the requested filter.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	filter := h.parseFilter(c)

	items, err := h.service.GetPlan(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to compute plan: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filter": filter,
		"count":  len(items),
		"items":  items,
	})
}

// GetSummary returns aggregate figures for the (filtered) plan.
func (h *PlanHandler) GetSummary(c *gin.Context) {
	filter := h.parseFilter(c)

	summary, err := h.service.GetSummary(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to summarize plan: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filter":  filter,
		"summary": summary,
	})
}

// Refresh invalidates every cached plan and recomputes the default one.
func (h *PlanHandler) Refresh(c *gin.Context) {
	tf := domain.ParseTimeframe(c.DefaultQuery("timeframe", "today"))

	summary, err := h.service.Refresh(c.Request.Context(), tf)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to refresh plan: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"timeframe": tf,
		"summary":   summary,
	})
}

// ListExports returns the plan CSVs already sitting in object storage.
func (h *PlanHandler) ListExports(c *gin.Context) {
	exports, err := h.service.ListExports(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list plan exports: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(exports),
		"exports": exports,
	})
}

// Export uploads the current plan CSV to object storage.
func (h *PlanHandler) Export(c *gin.Context) {
	filter := h.parseFilter(c)

	key, err := h.service.ExportPlan(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to export plan: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
