package services

import (
	"errors"

	"github.com/rohits-web03/docvault/internal/repositories"
)

var (
	ErrMissingFields      = errors.New("missing fields")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
	ErrUsernameTaken      = repositories.ErrUsernameTaken
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("document not found")
	ErrNoFileProvided     = errors.New("no file provided")
	ErrSignatureRequired  = errors.New("signature required")
	ErrExtractionFailed   = errors.New("failed to extract text")
	ErrAnalysisFailed     = errors.New("failed to analyze")
	ErrInvalidDocumentID  = errors.New("invalid document id")
)
