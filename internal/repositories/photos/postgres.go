package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/dbx"
	"github.com/dmitrijs2005/progresskeeper/internal/models"
)

// PostgresRepository works against a photo_metadata table with a bigint[]
// categories column and a timestamptz captured_at column. It is used with
// the pgx stdlib driver.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const postgresColumns = `id, user_id, local_id, width, height, captured_at, categories`

func (r *PostgresRepository) List(ctx context.Context, userID string, categoryIDs []int64) ([]*models.PhotoRow, error) {
	query := `SELECT ` + postgresColumns + ` FROM photo_metadata WHERE user_id = $1`
	args := []any{userID}
	if len(categoryIDs) > 0 {
		query += ` AND categories @> $2::bigint[]`
		args = append(args, arrayLiteral(categoryIDs))
	}
	query += ` ORDER BY captured_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list photos: %w", common.ErrRemote, err)
	}
	defer rows.Close()

	m := pgtype.NewMap()
	result := make([]*models.PhotoRow, 0)
	for rows.Next() {
		row, err := scanPostgresRow(m, rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate photo rows: %w", common.ErrRemote, err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, userID string) (*models.PhotoRow, error) {
	n, ok := numericID(id)
	if !ok {
		return nil, fmt.Errorf("photo %s: %w", id, common.ErrorNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+postgresColumns+` FROM photo_metadata WHERE id = $1 AND user_id = $2`, n, userID)

	p, err := scanPostgresRow(pgtype.NewMap(), row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("photo %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, row *models.PhotoRow) (*models.PhotoRow, error) {
	query := `
		INSERT INTO photo_metadata (user_id, local_id, width, height, captured_at, categories)
		VALUES ($1, $2, $3, $4, $5, $6::bigint[])
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		row.UserID, row.LocalID, row.Width, row.Height, row.CapturedAt.Time(), arrayLiteral(row.Categories),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert photo: %w", common.ErrRemote, err)
	}

	stored := *row
	stored.ID = strconv.FormatInt(id, 10)
	stored.Categories = slices.Clone(nonNil(row.Categories))
	return &stored, nil
}

func (r *PostgresRepository) UpdateLocalID(ctx context.Context, id, userID, localID string) error {
	n, ok := numericID(id)
	if !ok {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE photo_metadata SET local_id = $1 WHERE id = $2 AND user_id = $3`, localID, n, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to update photo %s: %w", common.ErrRemote, id, err)
	}
	return nil
}

func (r *PostgresRepository) UpdateCategories(ctx context.Context, id, userID string, categories []int64) error {
	n, ok := numericID(id)
	if !ok {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE photo_metadata SET categories = $1::bigint[] WHERE id = $2 AND user_id = $3`,
		arrayLiteral(categories), n, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to update photo %s: %w", common.ErrRemote, id, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	n, ok := numericID(id)
	if !ok {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM photo_metadata WHERE id = $1 AND user_id = $2`, n, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete photo %s: %w", common.ErrRemote, id, err)
	}
	return nil
}

func scanPostgresRow(m *pgtype.Map, s scanner) (*models.PhotoRow, error) {
	var (
		p             models.PhotoRow
		id            int64
		width, height sql.NullInt64
		cats          []int64
	)

	err := s.Scan(&id, &p.UserID, &p.LocalID, &width, &height, &p.CapturedAt, m.SQLScanner(&cats))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan photo row: %w", common.ErrRemote, err)
	}

	p.ID = strconv.FormatInt(id, 10)
	p.Width = int(width.Int64)
	p.Height = int(height.Int64)
	p.Categories = nonNil(cats)
	return &p, nil
}

// numericID reports the bigint form of id. Non-numeric ids cannot match any
// row of the bigserial table.
func numericID(id string) (int64, bool) {
	n, ok := models.NormalizePhotoID(id).(int64)
	return n, ok
}

// arrayLiteral formats ids as a Postgres array literal such as {3,7}.
func arrayLiteral(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
