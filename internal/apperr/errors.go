// Package apperr defines the error kinds shared by the renderer and its
// callers. Errors are wrapped with fmt.Errorf("%w") and matched with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrFileRead        = errors.New("failed to read file")
	ErrFileWrite       = errors.New("failed to write file")
	ErrMarkdownParse   = errors.New("failed to parse markdown content")
	ErrLanguage        = errors.New("failed to set markdown language")
	ErrTemplate        = errors.New("template error")
	ErrInvalidPath     = errors.New("invalid path")
	ErrMissingMetadata = errors.New("missing required metadata")
)
