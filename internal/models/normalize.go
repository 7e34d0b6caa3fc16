package models

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// NormalizeCategoryIDs converts category identifiers to numeric ids.
// Entries that are not finite integral numbers are dropped silently;
// duplicates are removed keeping the first occurrence.
func NormalizeCategoryIDs(values ...string) []int64 {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		id, ok := parseCategoryID(v)
		if !ok || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func parseCategoryID(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}

	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		return id, true
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// NormalizePhotoID returns the id as int64 when it is numeric and as the
// original string otherwise, matching how row ids are stored.
func NormalizePhotoID(id string) any {
	if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil {
		return n
	}
	return id
}

// WithoutCategory returns ids with every occurrence of id removed.
func WithoutCategory(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
