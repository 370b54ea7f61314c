package handler

import (
	"flowforge/internal/domain"
)

// Swagger type definitions for API documentation.

// --- Request Types ---

// ParseRequest represents the parse request body.
type ParseRequest struct {
	Text              string `json:"text" example:"Employee Onboarding Process\nHR sends the offer letter..."`
	InputType         string `json:"inputType" example:"document" enums:"document,voice_transcript,chat"`
	AdditionalContext string `json:"additionalContext" example:"The team is fully remote."`
}

// IdealStateRequest represents the ideal-state request body.
type IdealStateRequest struct {
	Process domain.ParsedProcess `json:"process"`
}

// ChatRequest represents one chat turn with the prior conversation.
type ChatRequest struct {
	History []domain.ChatMessage `json:"history"`
	Message string               `json:"message" example:"Who approves the requisition?"`
}

// ExportRequest represents the spreadsheet export request body.
type ExportRequest struct {
	Name  string                  `json:"name" example:"Q3 process review"`
	Batch domain.ParseBatchResult `json:"batch"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string            `json:"status" example:"ok"`
	Components map[string]string `json:"components,omitempty"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Response string `json:"response" example:"Who signs off on the offer before it goes out?"`
}

// ClearCacheResponse reports how many cache keys were removed.
type ClearCacheResponse struct {
	Deleted int    `json:"deleted" example:"42"`
	Pattern string `json:"pattern,omitempty" example:"parse:*"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
