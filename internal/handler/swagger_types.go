package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// Response is the success envelope as documented in OpenAPI.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody is the error envelope as documented in OpenAPI.
type ErrorResponseBody struct {
	Success bool     `json:"success" example:"false"`
	Error   APIError `json:"error"`
}

// ReadinessResponse is the body of GET /readyz.
type ReadinessResponse struct {
	Status string `json:"status" example:"unavailable"`
	Error  string `json:"error,omitempty" example:"executable not found: pdftocairo"`
}
