// Package models defines the photo records exchanged between the remote
// metadata table, the services layer and callers, together with the
// normalization rules applied at the data-access boundary.
package models

import "strconv"

// PhotoRow is one row of the remote photo_metadata table.
type PhotoRow struct {
	// ID is the row identity. Numeric ids are kept in their decimal form.
	ID string

	// UserID is the owning user.
	UserID string

	// LocalID is the photo reference: an http(s) URL, an encrypted blob
	// URI, or (before migration) a plaintext file:// URI.
	LocalID string

	// Width and Height are zero when the row stores NULL.
	Width  int
	Height int

	// CapturedAt is the capture time in epoch milliseconds.
	CapturedAt Timestamp

	// Categories holds numeric category ids; order is irrelevant.
	Categories []int64
}

// Photo is the record handed to callers: URI is already displayable
// (a remote URL or a decrypted preview file).
type Photo struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Timestamp  int64    `json:"timestamp"`
	Categories []string `json:"categories"`
}

// MapPhoto converts a row to a Photo with the given resolved URI.
func MapPhoto(row *PhotoRow, uri string) Photo {
	return Photo{
		ID:         row.ID,
		URI:        uri,
		Width:      row.Width,
		Height:     row.Height,
		Timestamp:  row.CapturedAt.Millis(),
		Categories: CategoryStrings(row.Categories),
	}
}

// CategoryStrings formats numeric category ids as strings.
func CategoryStrings(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}
