// Package messaging implements message composition and fan-out.
//
// A message is composed against an audience spec (the whole school, just
// parents, just teachers, the guardians of an activity group, or a custom
// recipient list) and resolved to concrete recipients only at send time.
// Each resolved recipient gets a message_recipients row for delivery
// bookkeeping and a notification_outbox row per channel for the dispatch
// workers to claim. Per-recipient problems (missing email, template render
// failures) never abort a send; they are collected as warnings on the
// send report.
//
// Repository implementations live in repository/postgres/.
package messaging
