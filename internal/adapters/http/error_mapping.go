package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrUnsupportedFileType),
		domain.IsKind(err, domain.ErrConflict):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// detailMessage strips the wrapping layers down to the innermost cause, which
// carries the user-facing text. Errors built with domain.WrapError unwrap to
// multiple children: the kind sentinel first, the cause last.
func detailMessage(err error) string {
	for {
		switch e := err.(type) {
		case interface{ Unwrap() []error }:
			children := e.Unwrap()
			if len(children) == 0 {
				return err.Error()
			}
			err = children[len(children)-1]
		case interface{ Unwrap() error }:
			next := e.Unwrap()
			if next == nil {
				return err.Error()
			}
			err = next
		default:
			return err.Error()
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	detail := detailMessage(err)
	if status == http.StatusInternalServerError {
		detail = "internal server error"
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
