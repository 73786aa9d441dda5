package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/menestis/skynet/internal/apierr"
)

// Respond writes data as a JSON response with the given status code.
func Respond(w http.ResponseWriter, log logr.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(err, "encoding response failed")
	}
}

// ErrorResponse is the JSON envelope every error response takes.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RespondError writes a JSON error envelope with status and message.
func RespondError(w http.ResponseWriter, log logr.Logger, status int, message string) {
	Respond(w, log, status, ErrorResponse{Error: http.StatusText(status), Message: message})
}

// recoverError translates a component error into the API's HTTP error
// taxonomy (spec §7): apierr.Status/PublicMessage for the typed taxonomy,
// a generic 500 for anything that fell through unexpected.
func recoverError(w http.ResponseWriter, log logr.Logger, err error) {
	status := apierr.Status(err)
	message := apierr.PublicMessage(err)
	if status == http.StatusInternalServerError {
		log.Error(err, "request failed")
	}
	RespondError(w, log, status, message)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
