package activities

import "errors"

// Sentinel errors for the activities service layer.
var (
	ErrNotFound        = errors.New("activity group not found")
	ErrLearnerNotFound = errors.New("learner not found")
	ErrNotEmpty        = errors.New("activity group still has members")
	ErrFull            = errors.New("activity group is at capacity")
	ErrNotMember       = errors.New("learner is not a member of this group")
)
