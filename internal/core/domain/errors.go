// internal/core/domain/errors.go
package domain

import "errors"

// Errores de dominio comunes.
var (
	// Target errors
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidTarget = errors.New("invalid target")

	// Plugin errors
	ErrLoad               = errors.New("plugin load failed")
	ErrUnknownPlugin      = errors.New("plugin implementation not registered")
	ErrCapabilityNotFound = errors.New("capability not found")
	ErrDecorationMissing  = errors.New("decorated function not found")
	ErrNoPluginsMatched   = errors.New("no plugins matched the filter")
	ErrPluginDisabled     = errors.New("plugin is disabled")

	// Job errors
	ErrJobFailed = errors.New("job failed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)
