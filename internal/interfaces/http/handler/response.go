package handler

import "github.com/dpnk/backend/internal/interfaces/http/dto"

// The types below only describe response envelopes for swag; handlers
// write dto.Response through BaseHandler.

// APIResponse is the envelope of a successful call returning T
// @Description Envelope with typed data, and page meta on list endpoints
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.PageMeta  `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of every failed call
// @Description Envelope with error code, message and request id
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse is returned by commands without a result
// @Description Envelope without data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// @Description Team invitation token
type TokenData struct {
	Token string `json:"token" example:"k3J9xQ2mWb"`
}

// @Description Link to a stored file such as a GPX track or an invoice
type URLData struct {
	URL string `json:"url" example:"https://media.dopracenakole.cz/gpx/5f1c.gpx"`
}
