// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Every handler file should use these helpers instead of writing raw
// http.ResponseWriter calls. This ensures consistent JSON formatting,
// error structures, and logging across all endpoints.
//
// Mutating endpoints respond with the Result envelope (succeeded flag plus a
// list of human-readable messages) so portal clients can surface outcomes and
// partial-failure warnings directly. Read endpoints return their payload
// unwrapped.
package httputil
