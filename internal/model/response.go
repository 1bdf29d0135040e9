package model

// APIResponse is a generic wrapper for successful API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewMessageResponse creates a successful API response carrying a message.
func NewMessageResponse[T any](message string, data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// ListResponse is the paginated product listing envelope.
type ListResponse struct {
	Success bool      `json:"success"`
	Count   int       `json:"count"`
	Total   int64     `json:"total"`
	Page    int       `json:"page"`
	Pages   int       `json:"pages"`
	Data    []Product `json:"data"`
}

// SearchResponse is the product search envelope.
type SearchResponse struct {
	Success     bool      `json:"success"`
	Count       int       `json:"count"`
	SearchQuery string    `json:"searchQuery"`
	Data        []Product `json:"data"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	Details   string   `json:"details,omitempty"`
	Endpoints []string `json:"endpoints,omitempty"`
}
