package model

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// AddRoomRequest is the body of POST /api/v1/rooms (admin append flow).
type AddRoomRequest struct {
	Name         string `json:"name" binding:"required"`
	Price        int    `json:"price" binding:"required"`
	Area         int    `json:"area" binding:"required"`
	Features     string `json:"features" binding:"required"`
	Style        string `json:"style"`
	MaxOccupancy int    `json:"maxOccupancy"`
}

// AddRoomResponse reports the outcome of an append.
type AddRoomResponse struct {
	Success bool   `json:"success"`
	Room    *Room  `json:"room,omitempty"`
	Message string `json:"message,omitempty"`
}

// AutoRecommendResponse reports the outcome of the generate-a-room endpoint.
// This is the one surface allowed to signal failure explicitly instead of
// embedding it in a conclusion text.
type AutoRecommendResponse struct {
	Success bool   `json:"success"`
	Room    *Room  `json:"room,omitempty"`
	Message string `json:"message,omitempty"`
}
