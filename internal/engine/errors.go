package engine

import "errors"

var (
	ErrOutOfBounds       = errors.New("coordinates outside project dimensions")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrRenderUnavailable = errors.New("offscreen renderer not available")
	ErrRenderFailed      = errors.New("render failed")
	ErrBadProjectFile    = errors.New("invalid project file")
)
