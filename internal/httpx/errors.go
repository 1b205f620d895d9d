package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sundayezeilo/passgen/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Conflict:
		return http.StatusConflict
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to the machine-readable code used in
// JSON error bodies.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Conflict:
		return "conflict"
	case errx.Invalid:
		return "invalid_input"
	case errx.Unavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

// WriteErr writes err as a JSON error response derived from its errx.Kind.
// Client errors (Invalid, NotFound, Conflict) carry the error text; anything
// else is logged and answered with a generic message.
func WriteErr(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := errx.KindOf(err)
	status := ErrorKindToStatus(kind)
	code := ErrorKindToCode(kind)

	switch kind {
	case errx.Invalid, errx.NotFound, errx.Conflict:
		WriteError(w, status, code, clientMessage(err), nil)
		return
	}

	if logger != nil {
		logger.ErrorContext(ctx, "request failed",
			"request_id", GetRequestID(ctx),
			"op", errx.OpOf(err),
			"kind", kind.String(),
			"error", err,
		)
	}

	msg := "an unexpected error occurred"
	if kind == errx.Unavailable {
		msg = "service temporarily unavailable"
	}
	WriteError(w, status, code, msg, nil)
}

// clientMessage strips the operation prefix so clients see only the cause.
func clientMessage(err error) string {
	for {
		e, ok := err.(*errx.Error)
		if !ok || e.Err == nil {
			return err.Error()
		}
		err = e.Err
	}
}
