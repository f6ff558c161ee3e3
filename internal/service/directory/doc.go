// Package directory manages the enterprise business directory: paid listing
// tiers and the listings themselves.
//
// Listings are moderated. They enter as pending, go live on approval and can
// be rejected with a reason or disabled later. The listing's tier caps how
// many images and videos it may attach. Visitor enquiries are relayed to the
// listing owner through the notification outbox; a failed relay degrades to
// a warning in the result envelope rather than failing the request.
package directory
