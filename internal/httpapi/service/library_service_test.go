package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookden/database"
	"bookden/internal/httpapi/models"
	"bookden/internal/httpapi/repository"
)

// The library service is tested against real repositories on an in-memory
// sqlite database so the upsert and unique-index paths are actually exercised.
func newTestLibraryService(t *testing.T) (LibraryService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gdb))

	svc := NewLibraryService(repository.NewFavoriteRepository(gdb), repository.NewBookRepository(gdb))
	return svc, gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test", Email: email, Password: "x", Role: models.RoleUser}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

func duneInput() AddBookInput {
	return AddBookInput{
		GoogleID: "abc123",
		Title:    "Dune",
		Authors:  "Frank Herbert",
	}
}

func TestAdd_ThenAddAgain(t *testing.T) {
	svc, gdb := newTestLibraryService(t)
	ctx := context.Background()
	user := seedUser(t, gdb, "ana@x.com")

	favorite, created, err := svc.Add(ctx, user.ID, duneInput())
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, favorite)
	assert.Equal(t, "abc123", favorite.Book.GoogleID)

	// second identical add is a no-op success, not an error
	_, created, err = svc.Add(ctx, user.ID, duneInput())
	require.NoError(t, err)
	assert.False(t, created)

	var favoriteCount, bookCount int64
	require.NoError(t, gdb.Model(&models.Favorite{}).Count(&favoriteCount).Error)
	require.NoError(t, gdb.Model(&models.Book{}).Count(&bookCount).Error)
	assert.EqualValues(t, 1, favoriteCount)
	assert.EqualValues(t, 1, bookCount)
}

func TestAdd_TwoUsersShareOneBook(t *testing.T) {
	svc, gdb := newTestLibraryService(t)
	ctx := context.Background()
	ana := seedUser(t, gdb, "ana@x.com")
	bea := seedUser(t, gdb, "bea@x.com")

	anaFavorite, created, err := svc.Add(ctx, ana.ID, duneInput())
	require.NoError(t, err)
	assert.True(t, created)

	beaFavorite, created, err := svc.Add(ctx, bea.ID, duneInput())
	require.NoError(t, err)
	assert.True(t, created)

	// separate memberships, one canonical row
	assert.NotEqual(t, anaFavorite.ID, beaFavorite.ID)
	assert.Equal(t, anaFavorite.BookID, beaFavorite.BookID)

	var bookCount int64
	require.NoError(t, gdb.Model(&models.Book{}).Count(&bookCount).Error)
	assert.EqualValues(t, 1, bookCount)
}

func TestAdd_InvalidInput(t *testing.T) {
	svc, gdb := newTestLibraryService(t)
	ctx := context.Background()
	user := seedUser(t, gdb, "ana@x.com")

	_, _, err := svc.Add(ctx, user.ID, AddBookInput{GoogleID: "", Title: "Dune"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.Add(ctx, user.ID, AddBookInput{GoogleID: "abc123", Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.Add(ctx, "", duneInput())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestList_OrderAndEmpty(t *testing.T) {
	svc, gdb := newTestLibraryService(t)
	ctx := context.Background()
	user := seedUser(t, gdb, "ana@x.com")

	favorites, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	base := time.Now().Add(-time.Hour)
	for i, googleID := range []string{"g1", "g2", "g3"} {
		input := AddBookInput{GoogleID: googleID, Title: "Book " + googleID}
		favorite, created, err := svc.Add(ctx, user.ID, input)
		require.NoError(t, err)
		require.True(t, created)
		// spread creation timestamps so the ordering is deterministic
		require.NoError(t, gdb.Model(&models.Favorite{}).
			Where("id = ?", favorite.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	favorites, err = svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 3)
	assert.Equal(t, "g3", favorites[0].Book.GoogleID)
	assert.Equal(t, "g1", favorites[2].Book.GoogleID)

	_, err = svc.List(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveAndNotes(t *testing.T) {
	svc, gdb := newTestLibraryService(t)
	ctx := context.Background()
	user := seedUser(t, gdb, "ana@x.com")

	favorite, _, err := svc.Add(ctx, user.ID, duneInput())
	require.NoError(t, err)

	updated, err := svc.UpdateNotes(ctx, user.ID, favorite.BookID, "a classic")
	require.NoError(t, err)
	assert.Equal(t, "a classic", updated.Notes)

	// other users cannot see or change this membership
	_, err = svc.UpdateNotes(ctx, "someone-else", favorite.BookID, "x")
	assert.ErrorIs(t, err, ErrNotInLibrary)
	assert.ErrorIs(t, svc.Remove(ctx, "someone-else", favorite.BookID), ErrNotInLibrary)

	require.NoError(t, svc.Remove(ctx, user.ID, favorite.BookID))
	assert.ErrorIs(t, svc.Remove(ctx, user.ID, favorite.BookID), ErrNotInLibrary)

	// removing the last membership does not delete the canonical book
	var bookCount int64
	require.NoError(t, gdb.Model(&models.Book{}).Count(&bookCount).Error)
	assert.EqualValues(t, 1, bookCount)
}
