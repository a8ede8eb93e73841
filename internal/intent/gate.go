package intent

// Review reasons reported by the gate.
const (
	ReasonNoMatch       = "no intent matched"
	ReasonLowConfidence = "confidence below auto-send threshold"
	ReasonSensitive     = "intent requires human review"
)

// Gate decides whether a proposed reply may be sent automatically or must be
// held for human approval.
type Gate struct {
	autoSendThreshold float64
	sensitive         map[string]struct{}
}

// NewGate creates a review gate. Replies are held when the match score is
// below autoSendThreshold or when the matched intent is listed as sensitive.
func NewGate(autoSendThreshold float64, sensitiveIntents []string) *Gate {
	sensitive := make(map[string]struct{}, len(sensitiveIntents))
	for _, name := range sensitiveIntents {
		sensitive[name] = struct{}{}
	}
	return &Gate{
		autoSendThreshold: autoSendThreshold,
		sensitive:         sensitive,
	}
}

// NeedsReview reports whether the reply for res must be held, and why.
// A nil res (no match) always needs review.
func (g *Gate) NeedsReview(res *MatchResult) (bool, string) {
	if res == nil {
		return true, ReasonNoMatch
	}
	if _, ok := g.sensitive[res.Intent]; ok {
		return true, ReasonSensitive
	}
	if res.Score < g.autoSendThreshold {
		return true, ReasonLowConfidence
	}
	return false, ""
}
