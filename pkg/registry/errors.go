package registry

import (
	"errors"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
)

var (
	// ErrPermissionDenied is returned when a caller lacks a tier required by a listen request
	ErrPermissionDenied = permission.ErrDenied
	// ErrNilCallback is returned when Listen is called without a callback
	ErrNilCallback = errors.New("callback cannot be nil")
	// ErrRegistryClosed is returned when the registry has been closed
	ErrRegistryClosed = errors.New("registry is closed")
)
