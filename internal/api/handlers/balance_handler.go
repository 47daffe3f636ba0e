package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-balance/internal/domain"
	"github.com/andresuchdata/inventory-balance/internal/export"
	"github.com/andresuchdata/inventory-balance/internal/service"
)

type BalanceHandler struct {
	service *service.BalanceService
}

func NewBalanceHandler(service *service.BalanceService) *BalanceHandler {
	return &BalanceHandler{service: service}
}

// parseQuery reads origin, destinations, threshold, variant and q. The
// destinations parameter accepts repeated values and comma-separated lists;
// when it is absent every warehouse except the origin is used.
func (h *BalanceHandler) parseQuery(c *gin.Context) (domain.BalanceQuery, error) {
	q := domain.BalanceQuery{
		Origin:  strings.TrimSpace(c.Query("origin")),
		Variant: strings.TrimSpace(c.Query("variant")),
		Search:  strings.TrimSpace(c.Query("q")),
	}

	if raw, ok := c.GetQueryArray("destinations"); ok {
		q.Destinations = make([]string, 0, len(raw))
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					q.Destinations = append(q.Destinations, part)
				}
			}
		}
	}

	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%w: %q", domain.ErrInvalidThreshold, raw)
		}
		q.Threshold = threshold
	}

	return q, nil
}

func (h *BalanceHandler) fail(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidThreshold),
		errors.Is(err, domain.ErrUnknownReport),
		errors.Is(err, domain.ErrOriginRequired):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownWarehouse):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLoad):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func (h *BalanceHandler) GetWarehouses(c *gin.Context) {
	list, err := h.service.Warehouses(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to load warehouses", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *BalanceHandler) GetKPIs(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		h.fail(c, "invalid query", err)
		return
	}

	overview, err := h.service.Overview(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "failed to compute kpis", err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

func (h *BalanceHandler) GetItems(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		h.fail(c, "invalid query", err)
		return
	}

	result, err := h.service.Browse(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "failed to search items", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *BalanceHandler) GetSuggestions(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		h.fail(c, "invalid query", err)
		return
	}

	result, err := h.service.Transfers(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "failed to compute suggestions", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *BalanceHandler) GetReverse(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		h.fail(c, "invalid query", err)
		return
	}

	result, err := h.service.Reverse(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "failed to compute reverse suggestions", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *BalanceHandler) GetSlowStock(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		h.fail(c, "invalid query", err)
		return
	}

	result, err := h.service.SlowStock(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "failed to list slow stock", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export streams the full report as CSV. The optional encoding parameter
// overrides the configured export charset.
func (h *BalanceHandler) Export(c *gin.Context) {
	kind, err := domain.ParseReportKind(c.Param("report"))
	if err != nil {
		h.fail(c, "unknown report", err)
		return
	}
	q, err := h.parseQuery(c)
	if err != nil {
		h.fail(c, "invalid query", err)
		return
	}

	name, table, err := h.service.Export(c.Request.Context(), kind, q)
	if err != nil {
		h.fail(c, "failed to export report", err)
		return
	}

	enc := c.DefaultQuery("encoding", h.service.ExportEncoding())
	data, err := export.Bytes(table, enc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported encoding", "details": err.Error()})
		return
	}

	charset := "utf-8"
	if strings.HasPrefix(strings.ToLower(enc), "latin") || strings.EqualFold(enc, "iso-8859-1") {
		charset = "iso-8859-1"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset="+charset, data)
}

func (h *BalanceHandler) Reload(c *gin.Context) {
	list, err := h.service.Reload(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to reload snapshot", err)
		return
	}

	c.JSON(http.StatusOK, list)
}
