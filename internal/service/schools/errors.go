package schools

import "errors"

// Sentinel errors for the schools service layer.
var (
	ErrSchoolNotFound    = errors.New("school not found")
	ErrLearnerNotFound   = errors.New("learner not found")
	ErrTeacherNotFound   = errors.New("teacher not found")
	ErrParentNotFound    = errors.New("parent not found")
	ErrSchoolHasLearners = errors.New("school still has enrolled learners")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrLearnerEnrolled   = errors.New("learner is enrolled in an activity group")
	ErrNotLinked         = errors.New("parent is not linked to this learner")
)
