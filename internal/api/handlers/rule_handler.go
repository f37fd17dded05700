package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/bazaarops/replenish/internal/repository"
	"github.com/bazaarops/replenish/internal/service"
	"github.com/gin-gonic/gin"
)

type RuleHandler struct {
	service *service.RuleService
}

func NewRuleHandler(service *service.RuleService) *RuleHandler {
	return &RuleHandler{service: service}
}

type ruleRequest struct {
	ProductID        int64   `json:"product_id" binding:"required"`
	SupplierID       int64   `json:"supplier_id" binding:"required"`
	MinStockLevel    int     `json:"min_stock_level"`
	ReorderQuantity  int     `json:"reorder_quantity" binding:"required"`
	Frequency        string  `json:"frequency"`
	Priority         string  `json:"priority"`
	SeasonalFactor   float64 `json:"seasonal_factor"`
	IsActive         *bool   `json:"is_active"`
	AutoOrderEnabled bool    `json:"auto_order_enabled"`
}

func (h *RuleHandler) CreateRule(c *gin.Context) {
	shopID, ok := parseIDParam(c, "shop_id")
	if !ok {
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule payload", "details": err.Error()})
		return
	}

	rule := &domain.ReplenishmentRule{
		ShopID:           shopID,
		ProductID:        req.ProductID,
		SupplierID:       req.SupplierID,
		MinStockLevel:    req.MinStockLevel,
		ReorderQuantity:  req.ReorderQuantity,
		Frequency:        domain.Frequency(req.Frequency),
		Priority:         domain.Priority(req.Priority),
		SeasonalFactor:   req.SeasonalFactor,
		IsActive:         true,
		AutoOrderEnabled: req.AutoOrderEnabled,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.service.CreateRule(c.Request.Context(), rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create rule", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) ListRules(c *gin.Context) {
	shopID, ok := parseIDParam(c, "shop_id")
	if !ok {
		return
	}

	rules, err := h.service.ListActiveRules(c.Request.Context(), shopID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rules", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules, "total": len(rules)})
}

func (h *RuleHandler) GetRule(c *gin.Context) {
	ruleID, ok := parseIDParam(c, "rule_id")
	if !ok {
		return
	}

	rule, err := h.service.GetRule(c.Request.Context(), ruleID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rule", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) UpdateRule(c *gin.Context) {
	shopID, ok := parseIDParam(c, "shop_id")
	if !ok {
		return
	}
	ruleID, ok := parseIDParam(c, "rule_id")
	if !ok {
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule payload", "details": err.Error()})
		return
	}

	rule := &domain.ReplenishmentRule{
		ID:               ruleID,
		ShopID:           shopID,
		ProductID:        req.ProductID,
		SupplierID:       req.SupplierID,
		MinStockLevel:    req.MinStockLevel,
		ReorderQuantity:  req.ReorderQuantity,
		Frequency:        domain.Frequency(req.Frequency),
		Priority:         domain.Priority(req.Priority),
		SeasonalFactor:   req.SeasonalFactor,
		IsActive:         true,
		AutoOrderEnabled: req.AutoOrderEnabled,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	err := h.service.UpdateRule(c.Request.Context(), rule)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to update rule", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) DeactivateRule(c *gin.Context) {
	ruleID, ok := parseIDParam(c, "rule_id")
	if !ok {
		return
	}

	err := h.service.DeactivateRule(c.Request.Context(), ruleID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate rule", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": ruleID})
}

func (h *RuleHandler) RefreshSeasonalFactors(c *gin.Context) {
	shopID, ok := parseIDParam(c, "shop_id")
	if !ok {
		return
	}

	updated, err := h.service.RefreshSeasonalFactors(c.Request.Context(), shopID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh seasonal factors", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules_updated": updated})
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}

	return id, true
}
