package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rohits-web03/docvault/internal/api/middleware"
	"github.com/rohits-web03/docvault/internal/api/services"
	"github.com/rohits-web03/docvault/internal/models"
	"github.com/rohits-web03/docvault/internal/utils"
	"go.uber.org/zap"
)

var errInvalidInput = errors.New("invalid input")

// statusFor maps service errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidInput),
		errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrPasswordTooLong),
		errors.Is(err, services.ErrNoFileProvided),
		errors.Is(err, services.ErrSignatureRequired),
		errors.Is(err, services.ErrInvalidDocumentID):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrAnalysisFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, errInvalidInput):
		return "Invalid input"
	case errors.Is(err, services.ErrMissingFields):
		return "Missing fields"
	case errors.Is(err, services.ErrPasswordTooLong):
		return "Password must be at most 72 bytes"
	case errors.Is(err, services.ErrUsernameTaken):
		return "Username is already taken"
	case errors.Is(err, services.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, services.ErrNotFound):
		return "Document not found"
	case errors.Is(err, services.ErrNoFileProvided):
		return "No file provided"
	case errors.Is(err, services.ErrSignatureRequired):
		return "Signature required"
	case errors.Is(err, services.ErrInvalidDocumentID):
		return "Invalid document id"
	case errors.Is(err, services.ErrExtractionFailed):
		return "Failed to extract text"
	case errors.Is(err, services.ErrAnalysisFailed):
		return "Failed to analyze"
	}
	return "Internal server error"
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", middleware.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	utils.JSONError(w, status, messageFor(err))
}

// decodeJSON rejects unknown fields and trailing garbage.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errInvalidInput
	}
	if dec.More() {
		return errInvalidInput
	}
	return nil
}

func parseDocumentID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, services.ErrInvalidDocumentID
	}
	return uint(id), nil
}

// currentUser is only called behind middleware.Auth.
func currentUser(r *http.Request) uint {
	id, _ := middleware.UserID(r.Context())
	return id
}

type documentResponse struct {
	models.Document
	State models.DocumentState `json:"state"`
}

func toDocumentResponse(doc *models.Document) documentResponse {
	return documentResponse{Document: *doc, State: doc.State()}
}

type userResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username}
}
