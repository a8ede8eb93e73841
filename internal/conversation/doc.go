// Package conversation provides the per-session transcript harness around
// the classification path.
//
// A Session accumulates (user, assistant) turns in strict chronological
// order and replays them to callers. It never interprets intents itself; the
// classification path is injected as a Responder.
package conversation
