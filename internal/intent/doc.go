// Package intent implements semantic intent classification for the
// conversational assistant.
//
// A Matcher is built once from a catalog of example-labeled intents. Each
// training phrase is embedded and stored in an in-memory chromem-go
// collection owned by the matcher. Queries embed the input once and rank
// intents by their best example similarity, regardless of the example's
// language, so a Malay question can match an intent whose strongest example
// is English as long as the embedding space is shared.
//
// The package also provides the review Gate that decides whether a proposed
// reply may be sent automatically or must be held for human approval.
package intent
