// Package repository defines error types that are reused across multiple
// repositories. Handlers compare against these values with errors.Is to
// pick the HTTP status.
package repository

import "errors"

// ErrProjectNotFound is returned when no row in `projects` has the
// requested id. Handlers translate this into an HTTP 404 response.
var ErrProjectNotFound = errors.New("project not found")
