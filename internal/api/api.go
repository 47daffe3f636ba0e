package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-balance/internal/api/handlers"
	"github.com/andresuchdata/inventory-balance/internal/api/middleware"
	"github.com/andresuchdata/inventory-balance/internal/metrics"
	"github.com/andresuchdata/inventory-balance/internal/service"
)

type Services struct {
	BalanceService *service.BalanceService
	Metrics        *metrics.Recorder
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
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

	if services == nil {
		return router
	}

	if services.Metrics != nil {
		router.GET("/metrics", gin.WrapH(services.Metrics.Handler()))
	}

	if services.BalanceService != nil {
		balanceHandler := handlers.NewBalanceHandler(services.BalanceService)
		balanceGroup := router.Group("/api/v1/balance")
		{
			balanceGroup.GET("/warehouses", balanceHandler.GetWarehouses)
			balanceGroup.GET("/kpis", balanceHandler.GetKPIs)
			balanceGroup.GET("/items", balanceHandler.GetItems)
			balanceGroup.GET("/suggestions", balanceHandler.GetSuggestions)
			balanceGroup.GET("/reverse", balanceHandler.GetReverse)
			balanceGroup.GET("/slow_stock", balanceHandler.GetSlowStock)
			balanceGroup.GET("/export/:report", balanceHandler.Export)
			balanceGroup.POST("/reload", balanceHandler.Reload)
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
