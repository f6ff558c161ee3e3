// Package schools implements the school registry and people directory:
// schools, learners, teachers, parents and the guardianship links between
// parents and learners.
//
// Schools are the tenant boundary for most of the platform. Learners and
// teachers belong to exactly one school; parents are enterprise-level so a
// guardian with children at two schools exists once. Learners are archived
// rather than deleted so membership and guardianship history stays intact.
package schools
