package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"bookden/internal/httpapi/models"
	"bookden/internal/httpapi/repository"
)

var ErrNotInLibrary = errors.New("book not in library")

// AddBookInput carries the catalog metadata needed to materialize a canonical
// book on first reference.
type AddBookInput struct {
	GoogleID    string
	Title       string
	Authors     string
	Description string
	Image       string
}

type LibraryService interface {
	// Add saves a book to the user's library. created is false when the book
	// was already there; that is a success, not an error.
	Add(ctx context.Context, userID string, input AddBookInput) (favorite *models.Favorite, created bool, err error)
	List(ctx context.Context, userID string) ([]models.Favorite, error)
	Remove(ctx context.Context, userID, bookID string) error
	UpdateNotes(ctx context.Context, userID, bookID, notes string) (*models.Favorite, error)
}

type libraryService struct {
	favoriteRepo repository.FavoriteRepository
	bookRepo     repository.BookRepository
}

func NewLibraryService(favoriteRepo repository.FavoriteRepository, bookRepo repository.BookRepository) LibraryService {
	return &libraryService{
		favoriteRepo: favoriteRepo,
		bookRepo:     bookRepo,
	}
}

func (s *libraryService) Add(ctx context.Context, userID string, input AddBookInput) (*models.Favorite, bool, error) {
	if userID == "" {
		return nil, false, ErrInvalidInput
	}
	if strings.TrimSpace(input.GoogleID) == "" || strings.TrimSpace(input.Title) == "" {
		return nil, false, ErrInvalidInput
	}

	book, err := s.bookRepo.GetOrCreate(ctx, &models.Book{
		GoogleID:    input.GoogleID,
		Title:       input.Title,
		Authors:     input.Authors,
		Description: input.Description,
		Image:       input.Image,
	})
	if err != nil {
		return nil, false, err
	}

	exists, err := s.favoriteRepo.Exists(ctx, userID, book.ID)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	favorite := &models.Favorite{
		UserID: userID,
		BookID: book.ID,
	}
	if err := s.favoriteRepo.Create(ctx, favorite); err != nil {
		// Lost the race against a concurrent identical add; the row is there.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, nil
		}
		return nil, false, err
	}
	favorite.Book = book

	return favorite, true, nil
}

func (s *libraryService) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.favoriteRepo.ListByUser(ctx, userID)
}

func (s *libraryService) Remove(ctx context.Context, userID, bookID string) error {
	if userID == "" || bookID == "" {
		return ErrInvalidInput
	}

	removed, err := s.favoriteRepo.DeleteByBook(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotInLibrary
	}
	return nil
}

func (s *libraryService) UpdateNotes(ctx context.Context, userID, bookID, notes string) (*models.Favorite, error) {
	if userID == "" || bookID == "" {
		return nil, ErrInvalidInput
	}

	favorite, err := s.favoriteRepo.UpdateNotes(ctx, userID, bookID, notes)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotInLibrary
		}
		return nil, err
	}
	favorite.Notes = notes
	return favorite, nil
}
