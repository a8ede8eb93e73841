// Package approval implements the human-review queue that holds proposed
// replies before they reach a guest.
//
// A Store owns an in-memory set of pending approvals with TTL expiry, a
// periodic sweep that removes expired entries, and a publish/subscribe bus
// that announces lifecycle transitions (added, approved, rejected, expired).
// Every entry reaches exactly one terminal state; operations on an id that
// is already terminal report "not found" rather than an error.
package approval
