package photos

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/dbx"
	"github.com/dmitrijs2005/progresskeeper/internal/models"
)

// SQLiteRepository keeps categories as a JSON array and accepts captured_at
// values stored either as epoch milliseconds or ISO-8601 text.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteColumns = `id, user_id, local_id, width, height, captured_at, categories`

func (r *SQLiteRepository) List(ctx context.Context, userID string, categoryIDs []int64) ([]*models.PhotoRow, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + sqliteColumns + ` FROM photo_metadata WHERE user_id = ?`)
	args := []any{userID}

	for _, id := range categoryIDs {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(photo_metadata.categories) WHERE CAST(json_each.value AS INTEGER) = ?)`)
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list photos: %w", common.ErrRemote, err)
	}
	defer rows.Close()

	result := make([]*models.PhotoRow, 0)
	for rows.Next() {
		row, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate photo rows: %w", common.ErrRemote, err)
	}

	// captured_at may mix numbers and text, so ordering happens after
	// normalization.
	slices.SortStableFunc(result, func(a, b *models.PhotoRow) int {
		if c := cmp.Compare(b.CapturedAt, a.CapturedAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})

	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id, userID string) (*models.PhotoRow, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM photo_metadata WHERE id = ? AND user_id = ?`,
		models.NormalizePhotoID(id), userID)

	p, err := scanSQLiteRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("photo %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, row *models.PhotoRow) (*models.PhotoRow, error) {
	cats, err := json.Marshal(nonNil(row.Categories))
	if err != nil {
		return nil, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO photo_metadata (user_id, local_id, width, height, captured_at, categories)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		row.UserID, row.LocalID, row.Width, row.Height, row.CapturedAt.Millis(), string(cats),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert photo: %w", common.ErrRemote, err)
	}

	stored := *row
	stored.ID = strconv.FormatInt(id, 10)
	stored.Categories = slices.Clone(nonNil(row.Categories))
	return &stored, nil
}

func (r *SQLiteRepository) UpdateLocalID(ctx context.Context, id, userID, localID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE photo_metadata SET local_id = ? WHERE id = ? AND user_id = ?`,
		localID, models.NormalizePhotoID(id), userID)
	if err != nil {
		return fmt.Errorf("%w: failed to update photo %s: %w", common.ErrRemote, id, err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateCategories(ctx context.Context, id, userID string, categories []int64) error {
	cats, err := json.Marshal(nonNil(categories))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE photo_metadata SET categories = ? WHERE id = ? AND user_id = ?`,
		string(cats), models.NormalizePhotoID(id), userID)
	if err != nil {
		return fmt.Errorf("%w: failed to update photo %s: %w", common.ErrRemote, id, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM photo_metadata WHERE id = ? AND user_id = ?`,
		models.NormalizePhotoID(id), userID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete photo %s: %w", common.ErrRemote, id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRow(s scanner) (*models.PhotoRow, error) {
	var (
		p             models.PhotoRow
		id            int64
		width, height sql.NullInt64
		cats          sql.NullString
	)

	err := s.Scan(&id, &p.UserID, &p.LocalID, &width, &height, &p.CapturedAt, &cats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan photo row: %w", common.ErrRemote, err)
	}

	p.ID = strconv.FormatInt(id, 10)
	p.Width = int(width.Int64)
	p.Height = int(height.Int64)
	p.Categories = decodeJSONCategories(cats.String)
	return &p, nil
}

// decodeJSONCategories accepts numbers or numeric strings. Other elements
// are dropped one by one; text that is not a JSON array yields an empty list.
func decodeJSONCategories(s string) []int64 {
	if s == "" {
		return []int64{}
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return []int64{}
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		switch v := v.(type) {
		case json.Number:
			values = append(values, v.String())
		case string:
			values = append(values, v)
		}
	}
	return models.NormalizeCategoryIDs(values...)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func compareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return cmp.Compare(ai, bi)
	}
	return strings.Compare(a, b)
}
