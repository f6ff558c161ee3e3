package domain

import "time"

// ActivityGroup is a school club, squad or society that learners enroll in.
// Capacity of zero means unlimited. An optional age group restricts who may
// join.
type ActivityGroup struct {
	ID          string    `json:"id" db:"id"`
	SchoolID    string    `json:"school_id" db:"school_id"`
	AgeGroupID  *string   `json:"age_group_id" db:"age_group_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Schedule    string    `json:"schedule" db:"schedule"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Active      bool      `json:"active" db:"active"`
	MemberCount int       `json:"member_count" db:"member_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// HasSpace reports whether another learner can enroll.
func (a *ActivityGroup) HasSpace() bool {
	return a.Capacity == 0 || a.MemberCount < a.Capacity
}

// ActivityMembership links a learner to an activity group.
type ActivityMembership struct {
	ActivityGroupID string    `json:"activity_group_id" db:"activity_group_id"`
	LearnerID       string    `json:"learner_id" db:"learner_id"`
	JoinedAt        time.Time `json:"joined_at" db:"joined_at"`
}
