package tui

import "errors"

// ErrMissingVersionService is returned when the version service is not provided.
var ErrMissingVersionService = errors.New("tui: version service is required")

// ErrMissingWorkflowID is returned when no workflow is given to browse.
var ErrMissingWorkflowID = errors.New("tui: workflow id is required")
