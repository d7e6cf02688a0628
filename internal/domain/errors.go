package domain

import "errors"

// ErrNotFound is returned by repo and store functions when the requested
// trip or vehicle does not exist. Handlers map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule (missing
// crew, negative odometer, end reading below start, inverted planning
// window). It is raised synchronously, before any remote call.
// Handlers map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrAuthRequired is returned by every repository operation when the
// context carries no authenticated session. The check runs before any
// network I/O. Handlers map this to HTTP 401.
var ErrAuthRequired = errors.New("authentication required")

// ErrConflict is returned when a status compare-and-swap loses a race,
// e.g. completing a trip another caller already completed or deleted.
// Handlers map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrVehicleUnavailable is returned when a creation attempt references a
// vehicle already bound to an active trip.
var ErrVehicleUnavailable = errors.New("vehicle unavailable")
