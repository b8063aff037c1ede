package reconcile

import "github.com/vango-dev/attrsync/internal/errors"

// IsConfigurationError reports whether err is a wiring error: a strategy
// that needs a host capability the host lacks, a focus-sensitive strategy on
// an element kind that cannot hold focus for it, or an unusable override.
func IsConfigurationError(err error) bool {
	return errors.HasCategory(err, errors.CategoryConfig)
}

// IsInvalidInputError reports whether err rejected a desired attribute map.
func IsInvalidInputError(err error) bool {
	return errors.HasCategory(err, errors.CategoryValidation)
}
