package chat

// QueryRequest is the body of POST /chat/query.
type QueryRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Message     string `json:"message"`
}

// SourceChunk is a preview of a document chunk used to answer a query.
type SourceChunk struct {
	DocumentID string  `json:"document_id,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// QueryResponse is the success body of POST /chat/query. ChunksCount is a
// pointer so clients can tell an omitted count from zero.
type QueryResponse struct {
	Reply        string        `json:"reply"`
	SourceChunks []SourceChunk `json:"source_chunks,omitempty"`
	ChunksCount  *int          `json:"chunks_count,omitempty"`
}

// ErrorBody is the failure body of every endpoint.
type ErrorBody struct {
	Detail string `json:"detail"`
}
