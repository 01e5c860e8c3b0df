package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookden/internal/httpapi/dto"
	"bookden/internal/httpapi/middleware"
	"bookden/internal/httpapi/models"
	"bookden/internal/httpapi/service"
)

type LibraryHandler struct {
	svc     service.LibraryService
	timeout time.Duration
	logger  *slog.Logger
}

func NewLibraryHandler(svc service.LibraryService, timeout time.Duration, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{svc: svc, timeout: timeout, logger: logger}
}

func (h *LibraryHandler) RegisterRoutes(rg *gin.RouterGroup, authService service.AuthService) {
	requireSession := middleware.AuthMiddleware(authService)
	rg.POST("", requireSession, h.Add)
	// Listing takes userId as a query param; no session is enforced here.
	rg.GET("", h.List)
	rg.DELETE("/:book_id", requireSession, h.Remove)
	rg.PATCH("/:book_id", requireSession, h.UpdateNotes)
}

// Add saves a catalog book into the caller's library.
func (h *LibraryHandler) Add(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.AddToLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "googleId and title are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	_, created, err := h.svc.Add(ctx, userID.(string), service.AddBookInput{
		GoogleID:    req.GoogleID,
		Title:       req.Title,
		Authors:     req.Authors,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "googleId and title are required"})
			return
		}
		h.logger.Error("add to library failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process the request"})
		return
	}

	if !created {
		c.JSON(http.StatusOK, dto.AddToLibraryResponse{Message: "already present"})
		return
	}
	c.JSON(http.StatusOK, dto.AddToLibraryResponse{Message: "added"})
}

// List returns the user's favorites joined with their books, newest first.
func (h *LibraryHandler) List(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	favorites, err := h.svc.List(ctx, userID)
	if err != nil {
		h.logger.Error("list library failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load the library"})
		return
	}

	items := make([]dto.FavoriteResponse, 0, len(favorites))
	for _, favorite := range favorites {
		items = append(items, toFavoriteResponse(favorite))
	}

	c.JSON(http.StatusOK, items)
}

// Remove deletes a favorite identified by its canonical book id.
func (h *LibraryHandler) Remove(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.Remove(ctx, userID.(string), c.Param("book_id")); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "book id is required"})
		case errors.Is(err, service.ErrNotInLibrary):
			c.JSON(http.StatusNotFound, gin.H{"error": "book not in library"})
		default:
			h.logger.Error("remove from library failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process the request"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateNotes changes the free-text note on a saved book.
func (h *LibraryHandler) UpdateNotes(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	favorite, err := h.svc.UpdateNotes(ctx, userID.(string), c.Param("book_id"), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "book id is required"})
		case errors.Is(err, service.ErrNotInLibrary):
			c.JSON(http.StatusNotFound, gin.H{"error": "book not in library"})
		default:
			h.logger.Error("update notes failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process the request"})
		}
		return
	}

	c.JSON(http.StatusOK, toFavoriteResponse(*favorite))
}

func toFavoriteResponse(favorite models.Favorite) dto.FavoriteResponse {
	resp := dto.FavoriteResponse{
		ID:        favorite.ID,
		UserID:    favorite.UserID,
		BookID:    favorite.BookID,
		Notes:     favorite.Notes,
		CreatedAt: favorite.CreatedAt,
	}
	if favorite.Book != nil {
		resp.Book = dto.BookResponse{
			ID:          favorite.Book.ID,
			GoogleID:    favorite.Book.GoogleID,
			Title:       favorite.Book.Title,
			Authors:     favorite.Book.Authors,
			Description: favorite.Book.Description,
			Image:       favorite.Book.Image,
		}
	}
	return resp
}
