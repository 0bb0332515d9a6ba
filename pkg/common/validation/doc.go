// Package validation contains the checks every Config type runs in its
// NewWithConfig constructor. All failures are *errors.ValidationError values
// that unwrap to errors.ErrInvalidConfiguration.
package validation
