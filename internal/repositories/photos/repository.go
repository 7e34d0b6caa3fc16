// Package photos implements access to the photo_metadata table: the remote
// Postgres table of a deployment, or its local SQLite copy for offline use.
//
// Every query is scoped by owning user. Driver failures are wrapped with
// common.ErrRemote; Get reports a missing row with common.ErrorNotFound.
package photos

import (
	"context"

	"github.com/dmitrijs2005/progresskeeper/internal/models"
)

type Repository interface {
	// List returns the user's rows ordered by capture time, most recent
	// first. When categoryIDs is non-empty only rows whose categories
	// contain all of them are returned.
	List(ctx context.Context, userID string, categoryIDs []int64) ([]*models.PhotoRow, error)

	// Get returns one row scoped by id and user.
	Get(ctx context.Context, id, userID string) (*models.PhotoRow, error)

	// Insert stores row and returns it with the assigned id.
	Insert(ctx context.Context, row *models.PhotoRow) (*models.PhotoRow, error)

	UpdateLocalID(ctx context.Context, id, userID, localID string) error
	UpdateCategories(ctx context.Context, id, userID string, categories []int64) error

	// Delete removes the row; deleting a missing row is not an error.
	Delete(ctx context.Context, id, userID string) error
}
