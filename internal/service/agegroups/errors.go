package agegroups

import "errors"

// Sentinel errors for the age group service layer.
var (
	ErrNotFound      = errors.New("age group not found")
	ErrDuplicateName = errors.New("age group name already in use at this school")
	ErrInUse         = errors.New("age group is referenced by an activity group")
)
