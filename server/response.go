package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/horasecreta/advisor/advisor"
	"github.com/horasecreta/advisor/errors"
)

// Caller-facing messages that are not produced by the pipeline
const (
	msgMethodNotAllowed = "Método não permitido."
	msgNotFound         = "Rota não encontrada."
)

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a {ok:false,error} response
func writeError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, errorBody{OK: false, Error: message})
}

// requireMethod checks if the request method matches one of the expected methods
func requireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	return false
}

// decodeAdvisorBody reads the POST /advisor body. An empty body decodes to
// an empty request so the validator reports it as an empty message.
func decodeAdvisorBody(body io.Reader) (advisor.RawRequest, error) {
	var raw advisor.RawRequest
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return advisor.RawRequest{}, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return raw, errors.Wrapf(errors.ErrInvalidRequest, "body exceeds %d bytes", tooLarge.Limit)
		}
		return raw, errors.Mark(errors.Wrap(err, "decode advisor body"), errors.ErrInvalidRequest)
	}
	return raw, nil
}
