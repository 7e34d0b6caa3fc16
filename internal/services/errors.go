package services

import "errors"

var (
	// ErrNoCategories is returned when a photo would be stored without any
	// valid category id.
	ErrNoCategories = errors.New("photo needs at least one numeric category")

	// ErrUnsupportedSource is returned for source URIs no reader handles.
	ErrUnsupportedSource = errors.New("unsupported source uri")

	// ErrBackupDisabled is returned when no object storage is configured.
	ErrBackupDisabled = errors.New("backup storage not configured")
)
