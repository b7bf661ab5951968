// Package httpx holds the JSON response helpers shared by HTTP handlers and
// the error translator that turns handler errors into response envelopes.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/apperr"
)

// HandlerFunc is an http handler that reports failure by returning an error
// instead of writing an error response.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorBody is the envelope of every failed request.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Translator converts errors returned by handlers into JSON responses.
type Translator struct {
	logger     *zap.SugaredLogger
	production bool
}

// NewTranslator builds a Translator. Outside production the error stack is
// included in the response.
func NewTranslator(logger *zap.SugaredLogger, production bool) *Translator {
	return &Translator{logger: logger, production: production}
}

// Wrap adapts h to net/http.
func (t *Translator) Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			t.Write(w, r, err)
		}
	}
}

// Write sends the error envelope for err.
func (t *Translator) Write(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	if status >= http.StatusInternalServerError {
		t.logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "kind", kind.String(), "err", err)
	} else {
		t.logger.Debugw("request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind.String(), "err", err)
	}
	body := ErrorBody{Success: false, Message: apperr.MessageOf(err)}
	if !t.production {
		body.Stack = fmt.Sprintf("%+v", err)
	}
	WriteJSON(w, status, body)
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
