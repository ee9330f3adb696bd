package dto

import "time"

// APIResponse is the envelope returned by every endpoint
type APIResponse struct {
	Success    bool            `json:"success" example:"true"`
	Data       interface{}     `json:"data,omitempty"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
	Error      *ErrorDetail    `json:"error,omitempty"`
	Timestamp  time.Time       `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// PaginationInfo represents pagination metadata
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	TotalPages  int   `json:"totalPages" example:"5"`
	PageSize    int   `json:"pageSize" example:"10"`
	TotalItems  int64 `json:"totalItems" example:"42"`
}

// MessageResponse carries a plain confirmation message
type MessageResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// NewSuccessResponse wraps data in a successful envelope
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewPaginatedResponse wraps a page of items together with its pagination metadata
func NewPaginatedResponse(items interface{}, pagination PaginationInfo) APIResponse {
	return APIResponse{
		Success:    true,
		Data:       items,
		Pagination: &pagination,
		Timestamp:  time.Now(),
	}
}
