package dto

type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

type ChatResponse struct {
	Text string `json:"text"`
}
