// Package respond provides the shared HTTP response envelope and CORS
// handling for the API handlers.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dcf_valuation/pkg/models"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// CORS writes permissive CORS headers and answers preflight. Returns true
// when the request was a preflight and has been handled.
func CORS(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail writes an error envelope with a status derived from the error type:
// invalid input maps to 400, unavailable data to 502, the rest to 500.
func Fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var unavailable *models.DataUnavailableError
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.As(err, &unavailable):
		status = http.StatusBadGateway
	}
	write(w, status, Envelope{Success: false, Error: err.Error()})
}

// BadRequest writes a 400 envelope with a plain message.
func BadRequest(w http.ResponseWriter, msg string) {
	write(w, http.StatusBadRequest, Envelope{Success: false, Error: msg})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
