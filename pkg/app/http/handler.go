// Package http provides HTTP utilities including chi-compatible error handling
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/superdao/reconciler/internal/metrics"
	apperrors "github.com/superdao/reconciler/pkg/app/errors"
)

// HandlerFunc defines a function that returns an error for clean error handling
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// HandleError wraps an error-returning HandlerFunc into a standard http.HandlerFunc
//
// Usage with chi:
//
//	r.Post("/claim", http.HandleError(handler.claim))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			DefaultErrorHandler(w, r, err)
		}
	}
}

type errorResponse struct {
	ErrMsg     string `json:"error"`
	ErrMsgCode int    `json:"code"`
	RequestID  string `json:"requestId,omitempty"`
}

// DefaultErrorHandler writes the JSON error response for a handler error.
// Service errors keep their category status code; anything else is reported
// as an opaque 500 so internal details never leak to clients.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Unexpected Service Error"

	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		status = svcErr.StatusCode()
		message = svcErr.Message
	}

	if status >= http.StatusInternalServerError {
		metrics.ErrorsTotal.WithLabelValues("http", strconv.Itoa(status)).Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&errorResponse{
		ErrMsg:     message,
		ErrMsgCode: status,
		RequestID:  middleware.GetReqID(r.Context()),
	})
}
