package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload returned by every failing endpoint.
type ErrorBody struct {
	Message string `json:"message"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Message: message})
}

// WriteError translates an error into the canonical envelope. AppError values
// carry their own status; anything else becomes a 500.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !asAppError(err, &appErr) {
		JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	message := appErr.Message
	if message == "" {
		message = "internal error"
	}
	JSONError(w, status, message)
}
