package domain

import "errors"

var (
	ErrDimensionMismatch   = errors.New("vector dimension mismatch")
	ErrModelMismatch       = errors.New("embedding model mismatch")
	ErrIndexNotLoaded      = errors.New("index not loaded")
	ErrIndexCorrupt        = errors.New("index files inconsistent")
	ErrMissingAPIKey       = errors.New("API key not configured")
	ErrEmbedderUnavailable = errors.New("embedding provider unavailable")
	ErrNoReviews           = errors.New("no reviews found for this business")
	ErrGeneratorDisabled   = errors.New("LLM client not initialized")
	ErrUnknownProvider     = errors.New("unknown provider")
)
