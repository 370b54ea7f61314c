package domain

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrEmptyDocument        = errors.New("document text is empty")
	ErrDocumentTooLarge     = errors.New("document exceeds maximum allowed size")
	ErrUnsupportedInputType = errors.New("unsupported input type")
	ErrInvalidProcess       = errors.New("process must have a name and at least one node")
	ErrEmptyMessage         = errors.New("chat message is empty")

	// ErrTransport covers unreachable providers, timeouts, non-2xx replies and refusals.
	// Callers may retry; the pipeline never retries a call itself.
	ErrTransport = errors.New("llm transport error")
	// ErrMalformedResponse means an LLM reply could not be read as the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed llm response")
	// ErrPipelineExhausted means no extraction path produced a single process.
	ErrPipelineExhausted = errors.New("parse pipeline exhausted")
	// ErrCacheUnavailable is never fatal to a parse; it only surfaces from admin operations.
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrArchiveDisabled  = errors.New("result archive is not configured")
	ErrAuditDisabled    = errors.New("parse run audit log is not configured")
)
