// Package respond writes the JSON envelope shared by every API response.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes an envelope with extra data fields at the top level. The
// success flag is derived from the status code.
func JSON(w http.ResponseWriter, status int, message string, fields map[string]any) {
	body := make(map[string]any, len(fields)+2)
	body["success"] = status < 400
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	write(w, status, body)
}

// OK writes a 200 envelope.
func OK(w http.ResponseWriter, message string, fields map[string]any) {
	JSON(w, http.StatusOK, message, fields)
}

// Created writes a 201 envelope.
func Created(w http.ResponseWriter, message string, fields map[string]any) {
	JSON(w, http.StatusCreated, message, fields)
}

// Error writes a failure envelope with no data fields.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, message, nil)
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
