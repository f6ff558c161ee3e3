package directory

import "errors"

// Sentinel errors for the directory service layer.
var (
	ErrNotFound      = errors.New("listing not found")
	ErrTierNotFound  = errors.New("listing tier not found")
	ErrTierInUse     = errors.New("tier still has listings attached")
	ErrAssetNotFound = errors.New("media asset not found")
	ErrMediaNotFound = errors.New("media is not attached to this listing")
	ErrNotApproved   = errors.New("listing is not approved")
)
