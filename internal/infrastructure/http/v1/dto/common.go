// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain"
)

// --- Pagination ---

// PageQuery carries limit/offset query parameters.
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Page converts to the domain page with defaults applied.
func (q PageQuery) Page() domain.Page {
	return domain.Page{Limit: q.Limit, Offset: q.Offset}.Normalize()
}

// DateRange carries from/to query parameters as YYYY-MM-DD or RFC 3339.
type DateRange struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// Parse returns the bounds; empty values are nil.
func (r DateRange) Parse() (from, to *time.Time, err error) {
	if from, err = parseTime("from", r.From); err != nil {
		return nil, nil, err
	}
	if to, err = parseTime("to", r.To); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func parseTime(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.NewValidation("invalid date").WithDetail("field", field).WithDetail("value", s)
}

// OptionalID parses an optional UUID query parameter.
func OptionalID(field, s string) (*id.ID, error) {
	v, err := id.ParseOptional(s)
	if err != nil {
		return nil, apperror.NewValidation("invalid id").WithDetail("field", field)
	}
	return v, nil
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
