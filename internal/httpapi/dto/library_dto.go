package dto

import "time"

// AddToLibraryRequest: payload to add a catalog book to the user's library
type AddToLibraryRequest struct {
	GoogleID    string `json:"googleId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Authors     string `json:"authors"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// UpdateNotesRequest: payload to change the notes on a saved book
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// BookResponse: canonical book as returned inside library items
type BookResponse struct {
	ID          string `json:"id"`
	GoogleID    string `json:"google_id"`
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// FavoriteResponse: response for a single library item
type FavoriteResponse struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	BookID    string       `json:"book_id"`
	Notes     string       `json:"notes"`
	CreatedAt time.Time    `json:"created_at"`
	Book      BookResponse `json:"book"`
}

// AddToLibraryResponse: outcome of an add; message distinguishes a fresh add
// from a book that was already saved
type AddToLibraryResponse struct {
	Message string `json:"message"`
}
