package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bazaarops/replenish/internal/repository"
	"github.com/bazaarops/replenish/internal/service"
	"github.com/gin-gonic/gin"
)

type ReplenishmentHandler struct {
	service *service.ReplenishmentService
}

func NewReplenishmentHandler(service *service.ReplenishmentService) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: service}
}

// Evaluate triggers a full evaluate+emit cycle for one shop.
func (h *ReplenishmentHandler) Evaluate(c *gin.Context) {
	shopID, ok := parseIDParam(c, "shop_id")
	if !ok {
		return
	}

	report, err := h.service.RunForShop(c.Request.Context(), shopID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// LatestReport returns the most recent cached evaluation report for a shop.
func (h *ReplenishmentHandler) LatestReport(c *gin.Context) {
	shopID, ok := parseIDParam(c, "shop_id")
	if !ok {
		return
	}

	report, err := h.service.LatestReport(c.Request.Context(), shopID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recent report for shop"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// UpcomingFestivals lists festival windows starting within the horizon.
func (h *ReplenishmentHandler) UpcomingFestivals(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 {
		days = 30
	}

	windows := h.service.UpcomingFestivals(time.Now(), days)

	c.JSON(http.StatusOK, gin.H{"festivals": windows, "horizon_days": days})
}
