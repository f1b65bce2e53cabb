package chat

import "time"

// MessageLog records one answered question for workspace analytics.
type MessageLog struct {
	ID            string    `json:"id"`
	WorkspaceID   string    `json:"workspace_id"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	IsContextUsed bool      `json:"is_context_used"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary aggregates a workspace's message logs.
type Summary struct {
	WorkspaceID    string `json:"workspace_id"`
	Total          int    `json:"total"`
	WithContext    int    `json:"with_context"`
	WithoutContext int    `json:"without_context"`
}
