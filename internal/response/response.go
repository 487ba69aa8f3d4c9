// Package response provides the shared JSON envelope and its HTTP helpers.
package response

import (
	"encoding/json"
	"net/http"
)

// Photo is one uploaded photo: its storage key and the public URL the provider issued.
type Photo struct {
	Filename string `json:"filename" example:"1760000000000-beach.jpg"`
	URL      string `json:"url"      example:"http://localhost:9000/photos/1760000000000-beach.jpg"`
}

// Envelope is the standard API response envelope. Photos is set on success,
// Error on failure.
type Envelope struct {
	Success bool    `json:"success"`
	Photos  []Photo `json:"photos,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response carrying the uploaded photos.
func OK(w http.ResponseWriter, photos []Photo) {
	JSON(w, http.StatusOK, Envelope{Success: true, Photos: photos})
}

// Error writes an error response with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Error: message})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// InternalError writes a 500 response. An empty message falls back to a generic one.
func InternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Failed to process photos"
	}
	Error(w, http.StatusInternalServerError, message)
}
