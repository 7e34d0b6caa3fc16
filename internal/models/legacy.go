package models

import (
	"encoding/json"
	"strings"
)

// LegacyImage is one entry of a legacy on-device export. Older entries carry
// a single "category" string, newer ones a "categories" array; decoding
// normalizes both shapes into Categories.
type LegacyImage struct {
	ID         string
	URI        string
	Width      int
	Height     int
	Timestamp  Timestamp
	Categories []string
}

type legacyImageJSON struct {
	ID         json.RawMessage `json:"id"`
	URI        string          `json:"uri"`
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Timestamp  Timestamp       `json:"timestamp"`
	Category   *string         `json:"category"`
	Categories []string        `json:"categories"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LegacyImage) UnmarshalJSON(b []byte) error {
	var raw legacyImageJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*l = LegacyImage{
		ID:        rawID(raw.ID),
		URI:       raw.URI,
		Width:     int(raw.Width),
		Height:    int(raw.Height),
		Timestamp: raw.Timestamp,
	}

	switch {
	case raw.Categories != nil:
		l.Categories = raw.Categories
	case raw.Category != nil && *raw.Category != "":
		l.Categories = []string{*raw.Category}
	default:
		l.Categories = []string{}
	}
	return nil
}

func rawID(b json.RawMessage) string {
	if len(b) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(b))
}

// DecodeLegacyImages parses a legacy export: either a JSON array of images
// or an object holding them under "progress_images".
func DecodeLegacyImages(data []byte) ([]LegacyImage, error) {
	var images []LegacyImage
	if err := json.Unmarshal(data, &images); err == nil {
		return images, nil
	}

	var wrapped struct {
		Images json.RawMessage `json:"progress_images"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	if len(wrapped.Images) == 0 {
		return []LegacyImage{}, nil
	}

	// AsyncStorage exports keep the array as an encoded string.
	var encoded string
	if err := json.Unmarshal(wrapped.Images, &encoded); err == nil {
		wrapped.Images = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(wrapped.Images, &images); err != nil {
		return nil, err
	}
	return images, nil
}
