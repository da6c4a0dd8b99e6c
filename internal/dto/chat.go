package dto

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Failed    bool   `json:"failed"`
}

type MessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type HistoryResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
}
