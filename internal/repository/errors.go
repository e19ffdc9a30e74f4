// Package repository defines the closed set of error values shared by all
// repositories. Higher layers match on these with errors.Is instead of
// inspecting diagnostic strings, so every failure a handler needs to
// distinguish has its own sentinel.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist. Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals that an insert collides with existing state, such as
// registering an already-taken username. Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// ErrDuplicateToken is returned when an issued token's encoded value is
// already stored. Two live tokens never share an encoded value; hitting
// this means a signing collision, not a business case.
var ErrDuplicateToken = errors.New("duplicate token")
