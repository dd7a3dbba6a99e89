package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the response shape every API endpoint emits. Success responses
// carry Data and an optional human-readable Message; failures carry Error.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// WriteJSON writes an arbitrary JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 envelope with data and message.
func WriteSuccess(w http.ResponseWriter, data interface{}, message string) error {
	return WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// WriteCreated writes a 201 envelope with data and message.
func WriteCreated(w http.ResponseWriter, data interface{}, message string) error {
	return WriteJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// WriteErrorCode writes a failure envelope with a machine-readable code.
func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}

// WriteValidationError writes a 400 failure envelope.
func WriteValidationError(w http.ResponseWriter, code, message string) {
	WriteErrorCode(w, http.StatusBadRequest, code, message)
}

// WriteNotFoundError writes a 404 failure envelope.
func WriteNotFoundError(w http.ResponseWriter, code, message string) {
	WriteErrorCode(w, http.StatusNotFound, code, message)
}

// WriteInternalError writes a 500 failure envelope with the DATABASE_ERROR
// code the UI keys off for store failures.
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteErrorCode(w, http.StatusInternalServerError, "DATABASE_ERROR", err.Error())
}
