package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/progresskeeper/internal/netx"
)

// ContentResolver reads content that is not a plain local file (for
// example a content-provider or data: URI) and returns it as base64 text.
type ContentResolver interface {
	ReadBase64(ctx context.Context, uri string) (string, error)
}

// DataURIResolver serves RFC 2397 data: URIs.
type DataURIResolver struct{}

func (DataURIResolver) ReadBase64(_ context.Context, uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, uri)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", fmt.Errorf("%w: malformed data uri", ErrUnsupportedSource)
	}

	if strings.HasSuffix(meta, ";base64") {
		return payload, nil
	}

	raw, err := url.PathUnescape(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedSource, err)
	}
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// HTTPResolver downloads http(s) sources so they can be stored encrypted.
// Zero values use http.DefaultClient and netx.MaxDownloadSize.
type HTTPResolver struct {
	Client *http.Client
	Limit  int64
}

func (h HTTPResolver) ReadBase64(ctx context.Context, uri string) (string, error) {
	data, err := netx.Download(ctx, h.Client, uri, h.Limit)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", uri, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func scheme(uri string) string {
	s, _, ok := strings.Cut(uri, ":")
	if !ok {
		return ""
	}
	return strings.ToLower(s)
}
