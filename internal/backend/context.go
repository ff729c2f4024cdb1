package backend

import (
	"go.uber.org/zap"

	"sunsetrd/internal/config"
	"sunsetrd/internal/procreg"
)

// Context provides dependencies a backend factory needs to construct its
// backend, wrapped in a single struct for cleaner constructor signatures.
type Context struct {
	// Config is the current configuration at construction time. Backends do
	// not hold a live reference; reload is applied by the control loop
	// calling Apply with freshly interpolated values.
	Config *config.Config

	// Logger is a structured logger for the backend to use.
	Logger *zap.Logger

	// Initial is the (temperature, gamma) the backend should start at, so
	// helper processes can be spawned with matching initial values and the
	// display never flashes through defaults.
	Initial InitialValues

	// PIDRegistry is the process-wide emergency child registry backends
	// register spawned helper processes with.
	PIDRegistry *procreg.Registry
}

// InitialValues mirrors interp.Values without importing it here, to keep
// Context construction decoupled from the interpolation package's import
// graph (it is filled in by the caller from an interp.Values).
type InitialValues struct {
	Temperature uint32
	Gamma       float64
}
