// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

import "errors"

// IsNotFound reports whether err is (or wraps) a NotFound error.
func IsNotFound(err error) bool {
	var notFound NotFound
	return errors.As(err, &notFound)
}

// IsConflict reports whether err is (or wraps) a Conflict error.
func IsConflict(err error) bool {
	var conflict Conflict
	return errors.As(err, &conflict)
}

// IsValidation reports whether err is (or wraps) a Validation error.
func IsValidation(err error) bool {
	var validation Validation
	return errors.As(err, &validation)
}

// IsRejection reports whether err is (or wraps) a Rejection error.
func IsRejection(err error) bool {
	var rejection Rejection
	return errors.As(err, &rejection)
}
