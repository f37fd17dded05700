// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/bazaarops/replenish/internal/api/handlers"
	"github.com/bazaarops/replenish/internal/api/middleware"
	"github.com/bazaarops/replenish/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	RuleService          *service.RuleService
	ReplenishmentService *service.ReplenishmentService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.RuleService != nil {
			ruleHandler := handlers.NewRuleHandler(services.RuleService)
			ruleGroup := apiGroup.Group("/shops/:shop_id/rules")
			{
				ruleGroup.POST("", ruleHandler.CreateRule)
				ruleGroup.GET("", ruleHandler.ListRules)
				ruleGroup.GET("/:rule_id", ruleHandler.GetRule)
				ruleGroup.PUT("/:rule_id", ruleHandler.UpdateRule)
				ruleGroup.DELETE("/:rule_id", ruleHandler.DeactivateRule)
				ruleGroup.POST("/refresh_seasonal", ruleHandler.RefreshSeasonalFactors)
			}
		}

		if services.ReplenishmentService != nil {
			replHandler := handlers.NewReplenishmentHandler(services.ReplenishmentService)
			replGroup := apiGroup.Group("/replenishment")
			{
				replGroup.POST("/shops/:shop_id/evaluate", replHandler.Evaluate)
				replGroup.GET("/shops/:shop_id/report", replHandler.LatestReport)
				replGroup.GET("/festivals", replHandler.UpcomingFestivals)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
