package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyImage_BothShapes(t *testing.T) {
	data := []byte(`[
		{"id":"img_1","uri":"file:///a.jpg","width":10,"height":20,"timestamp":1000,"category":"3"},
		{"id":"img_2","uri":"file:///b.jpg","width":0,"height":0,"timestamp":2000,"categories":["1","2"]},
		{"id":7,"uri":"file:///c.jpg","timestamp":"1970-01-01T00:00:03Z"}
	]`)

	images, err := DecodeLegacyImages(data)
	require.NoError(t, err)
	require.Len(t, images, 3)

	assert.Equal(t, []string{"3"}, images[0].Categories)
	assert.Equal(t, 10, images[0].Width)
	assert.Equal(t, []string{"1", "2"}, images[1].Categories)
	assert.Equal(t, "7", images[2].ID)
	assert.Equal(t, int64(3000), images[2].Timestamp.Millis())
	assert.Empty(t, images[2].Categories)
}

func TestLegacyImage_CategoriesWinOverCategory(t *testing.T) {
	var img LegacyImage
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","category":"1","categories":["2"]}`), &img))
	assert.Equal(t, []string{"2"}, img.Categories)
}

func TestDecodeLegacyImages_WrappedExport(t *testing.T) {
	data := []byte(`{"progress_images":"[{\"id\":\"a\",\"uri\":\"file:///a.jpg\",\"category\":\"5\"}]"}`)
	images, err := DecodeLegacyImages(data)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, []string{"5"}, images[0].Categories)

	images, err = DecodeLegacyImages([]byte(`{"progress_images":[{"id":"b","categories":["1"]}]}`))
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "b", images[0].ID)

	images, err = DecodeLegacyImages([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestDecodeLegacyImages_Invalid(t *testing.T) {
	_, err := DecodeLegacyImages([]byte(`not json`))
	require.Error(t, err)
}
