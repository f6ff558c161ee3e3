// Package activities manages school activity groups (clubs, squads,
// societies) and their learner memberships.
//
// Enrollment is guarded twice: a group with a capacity admits no more than
// that many learners, and a group tied to an age group only admits learners
// whose age falls inside the bracket on the day they join. Enrolling a
// learner who is already a member is a no-op rather than an error, so
// double-submits from the admin UI stay harmless.
package activities
