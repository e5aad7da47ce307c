package domain

// WebSocketMessage is a frame pushed to room watchers.
type WebSocketMessage struct {
	Type    string `json:"type"`
	Content any    `json:"content,omitempty"`
}

type WebSocketErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}
