package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategoryIDs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []int64
	}{
		{"drops non numeric", []string{"3", "abc", "7"}, []int64{3, 7}},
		{"dedupes keeping first", []string{"7", "3", "7"}, []int64{7, 3}},
		{"integral float", []string{"5.0", " 6 "}, []int64{5, 6}},
		{"fractional dropped", []string{"1.5", "2"}, []int64{2}},
		{"non finite dropped", []string{"NaN", "Inf", "-Inf", ""}, []int64{}},
		{"negative kept", []string{"-2"}, []int64{-2}},
		{"empty", nil, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCategoryIDs(tt.in...)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhotoID(t *testing.T) {
	assert.Equal(t, int64(42), NormalizePhotoID("42"))
	assert.Equal(t, int64(42), NormalizePhotoID(" 42 "))
	assert.Equal(t, "img_1_abc", NormalizePhotoID("img_1_abc"))
}

func TestWithoutCategory(t *testing.T) {
	assert.Equal(t, []int64{2}, WithoutCategory([]int64{1, 2, 1}, 1))
	assert.Equal(t, []int64{}, WithoutCategory([]int64{1}, 1))
	assert.Equal(t, []int64{1, 2}, WithoutCategory([]int64{1, 2}, 9))
}

func TestMapPhoto(t *testing.T) {
	row := &PhotoRow{
		ID:         "9",
		UserID:     "u1",
		LocalID:    "https://example.com/a.jpg",
		Width:      100,
		Height:     200,
		CapturedAt: 1700000000000,
		Categories: []int64{1, 22},
	}

	p := MapPhoto(row, "file:///tmp/x.jpg")
	assert.Equal(t, Photo{
		ID:         "9",
		URI:        "file:///tmp/x.jpg",
		Width:      100,
		Height:     200,
		Timestamp:  1700000000000,
		Categories: []string{"1", "22"},
	}, p)
}
