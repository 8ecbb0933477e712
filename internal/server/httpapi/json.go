package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/recipehub/recipehub/internal/common"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return common.NewError(common.ErrorValidation, "request body too large")
		case errors.Is(err, io.EOF):
			return common.NewError(common.ErrorValidation, "request body is empty")
		default:
			return common.NewError(common.ErrorValidation, "malformed JSON body")
		}
	}
	if dec.More() {
		return common.NewError(common.ErrorValidation, "request body must contain a single JSON object")
	}
	return nil
}

// statusFor maps an error category to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	msg := http.StatusText(status)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "Internal server error"
	} else {
		var ke *common.KindError
		if errors.As(err, &ke) {
			msg = ke.Error()
		}
	}

	writeJSON(w, status, errorBody{StatusCode: status, Message: msg})
}
