package utils

import (
	"encoding/json"
	"net/http"
)

// Payload is the envelope of every JSON response.
type Payload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSONResponse sends a JSON response with given status, success flag, and payload
func JSONResponse(w http.ResponseWriter, status int, payload Payload) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// JSONError sends a failed Payload carrying only a message.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSONResponse(w, status, Payload{Success: false, Message: message})
}

// JSONSuccess sends a successful Payload with optional data.
func JSONSuccess(w http.ResponseWriter, status int, message string, data any) {
	JSONResponse(w, status, Payload{Success: true, Message: message, Data: data})
}
