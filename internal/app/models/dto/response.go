package dto

import "time"

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Success   bool         `json:"success" example:"true"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewSuccessResponse wraps data in a successful APIResponse
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// SuccessResponse represents a bare acknowledgement
type SuccessResponse struct {
	Message string `json:"message" example:"ok"`
}

// CountResponse carries the number of affected rows
type CountResponse struct {
	UpdatedCount int64 `json:"updatedCount" example:"3"`
}

// DeletedCountResponse carries the number of removed rows
type DeletedCountResponse struct {
	DeletedCount int64 `json:"deletedCount" example:"12"`
}
