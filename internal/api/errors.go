package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/quire/internal/apperr"
)

// Error kinds reported in the "error" field of error responses.
const (
	KindFileRead        = "FILE_READ_ERROR"
	KindFileWrite       = "FILE_WRITE_ERROR"
	KindMarkdownParse   = "MARKDOWN_PARSE_ERROR"
	KindLanguage        = "LANGUAGE_ERROR"
	KindTemplate        = "TEMPLATE_ERROR"
	KindInvalidPath     = "INVALID_PATH_ERROR"
	KindMissingMetadata = "MISSING_METADATA_ERROR"
	KindNotFound        = "NOT_FOUND"
	KindBadRequest      = "BAD_REQUEST"
	KindInternal        = "INTERNAL_ERROR"
)

type errResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{apperr.ErrFileRead, http.StatusNotFound, KindFileRead},
	{apperr.ErrInvalidPath, http.StatusNotFound, KindInvalidPath},
	{apperr.ErrNotFound, http.StatusNotFound, KindNotFound},
	{apperr.ErrMissingMetadata, http.StatusBadRequest, KindMissingMetadata},
	{apperr.ErrBadRequest, http.StatusBadRequest, KindBadRequest},
	{apperr.ErrFileWrite, http.StatusInternalServerError, KindFileWrite},
	{apperr.ErrMarkdownParse, http.StatusInternalServerError, KindMarkdownParse},
	{apperr.ErrLanguage, http.StatusInternalServerError, KindLanguage},
	{apperr.ErrTemplate, http.StatusInternalServerError, KindTemplate},
}

// classify maps err to its HTTP status and kind. The first matching
// sentinel wins; unknown errors are internal.
func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.kind
		}
	}
	return http.StatusInternalServerError, KindInternal
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	msg := err.Error()
	if kind == KindInternal {
		slog.Error("request failed", slog.String("error", msg))
		msg = "internal error"
	}
	writeJSON(w, status, errResponse{Code: status, Message: msg, Error: kind})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errResponse{
		Code:    http.StatusBadRequest,
		Message: msg,
		Error:   KindBadRequest,
	})
}
