package approval

import "time"

// Metadata carries provenance for a pending approval.
type Metadata struct {
	// Source identifies the pipeline that produced the suggestion
	// (e.g. "semantic", "llm").
	Source string `json:"source,omitempty"`

	// Model is the model that produced the suggested response.
	Model string `json:"model,omitempty"`

	// KnowledgeFiles lists knowledge-base files the suggestion drew on.
	KnowledgeFiles []string `json:"knowledge_files,omitempty"`
}

// Draft is the caller-supplied part of a pending approval. The store assigns
// the id and timestamps.
type Draft struct {
	Phone             string   `json:"phone"`
	PushName          string   `json:"push_name"`
	OriginalMessage   string   `json:"original_message"`
	SuggestedResponse string   `json:"suggested_response"`
	Intent            string   `json:"intent"`
	Confidence        float64  `json:"confidence"`
	Language          string   `json:"language"`
	Metadata          Metadata `json:"metadata"`
}

// PendingApproval is a reply held for human review.
type PendingApproval struct {
	ID                string    `json:"id"`
	Phone             string    `json:"phone"`
	PushName          string    `json:"push_name"`
	OriginalMessage   string    `json:"original_message"`
	SuggestedResponse string    `json:"suggested_response"`
	Intent            string    `json:"intent"`
	Confidence        float64   `json:"confidence"`
	Language          string    `json:"language"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	Metadata          Metadata  `json:"metadata"`
}
