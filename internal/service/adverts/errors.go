package adverts

import "errors"

// Sentinel errors for the adverts service layer.
var (
	ErrNotFound          = errors.New("advert not found")
	ErrLive              = errors.New("advert is currently live")
	ErrExpired           = errors.New("advert has expired")
	ErrInvalidTransition = errors.New("invalid advert status transition")
)
