// Package respond writes the JSON envelope every API endpoint returns:
//
//	{ "status": true, "data": {...}, "message": "..." }
//
// and maps autherr failures onto HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/authhub/internal/domain/autherr"
	"go.uber.org/zap"
)

// Envelope is the response body shape.
type Envelope struct {
	Status  bool   `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, code int, data any, message string) {
	JSON(w, code, Envelope{Status: true, Data: data, Message: message})
}

// Fail writes a failed envelope with no data.
func Fail(w http.ResponseWriter, code int, message string) {
	JSON(w, code, Envelope{Status: false, Message: message})
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, autherr.ErrValidation),
		errors.Is(err, autherr.ErrUnsupportedProvider):
		return http.StatusBadRequest
	case errors.Is(err, autherr.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, autherr.ErrInvalidCredentials),
		errors.Is(err, autherr.ErrInvalidToken),
		errors.Is(err, autherr.ErrWrongTokenType),
		errors.Is(err, autherr.ErrAccountDisabled),
		errors.Is(err, autherr.ErrProviderRejected):
		return http.StatusUnauthorized
	case errors.Is(err, autherr.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, autherr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err. Validation errors carry
// their field message; other known failures use the sentinel text; anything
// else is hidden.
func Message(err error) string {
	var ve *autherr.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	for _, s := range []error{
		autherr.ErrDuplicateAccount,
		autherr.ErrInvalidCredentials,
		autherr.ErrInvalidToken,
		autherr.ErrWrongTokenType,
		autherr.ErrAccountDisabled,
		autherr.ErrProviderRejected,
		autherr.ErrProviderUnavailable,
		autherr.ErrUnsupportedProvider,
		autherr.ErrNotFound,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "Internal server error"
}

// Error maps err to a failed envelope. Unclassified errors are logged at
// error level since their detail is not sent to the client.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	Fail(w, code, Message(err))
}

// Decode reads a JSON body into v, rejecting unknown fields and trailing data.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return autherr.Invalid("body", "Request body must be a valid JSON object.")
	}
	if dec.More() {
		return autherr.Invalid("body", "Request body must contain a single JSON object.")
	}
	return nil
}

const maxBody = 1 << 20
