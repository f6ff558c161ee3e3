package vacations

import "errors"

// Sentinel errors for the vacations service layer.
var (
	ErrNotFound          = errors.New("vacation package not found")
	ErrNotDraft          = errors.New("only draft packages can be deleted")
	ErrArchived          = errors.New("archived packages cannot be edited")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAssetNotFound     = errors.New("media asset not found")
	ErrImageNotFound     = errors.New("image is not attached to this package")
)
