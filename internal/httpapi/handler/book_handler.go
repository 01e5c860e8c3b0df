package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookden/internal/catalog"
)

// BookHandler exposes catalog search. Every call is a live upstream request;
// nothing is cached on this side.
type BookHandler struct {
	catalog *catalog.Client
	logger  *slog.Logger
}

func NewBookHandler(catalogClient *catalog.Client, logger *slog.Logger) *BookHandler {
	return &BookHandler{catalog: catalogClient, logger: logger}
}

func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.Search)
	rg.GET("/:id", h.GetByID)
}

func (h *BookHandler) Search(c *gin.Context) {
	query := c.Query("q")

	startIndex := 0
	if raw := c.Query("startIndex"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startIndex must be a non-negative integer"})
			return
		}
		startIndex = parsed
	}

	maxResults := catalog.MaxPageSize
	if raw := c.Query("maxResults"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxResults must be a positive integer"})
			return
		}
		maxResults = parsed
	}

	result, err := h.catalog.Search(c.Request.Context(), query, startIndex, maxResults)
	if err != nil {
		if errors.Is(err, catalog.ErrUpstreamUnavailable) {
			h.logger.Warn("catalog search failed", "query", query, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "book search is temporarily unavailable"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *BookHandler) GetByID(c *gin.Context) {
	volume, err := h.catalog.GetVolume(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Warn("catalog lookup failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "book lookup is temporarily unavailable"})
		return
	}
	if volume == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	c.JSON(http.StatusOK, volume)
}
