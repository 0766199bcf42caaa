package permission

import "errors"

// ErrDenied is returned when a caller lacks a tier required by a request
var ErrDenied = errors.New("permission denied")
