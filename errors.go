// errors.go: structured error handling for storage engine operations
//
// This file provides structured error types using the go-errors library,
// enabling rich error context, categorization, and standardized error codes
// for every engine operation.
//
// Copyright (c) 2026 storage-engine contributors
// SPDX-License-Identifier: MPL-2.0
package hashengine

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for storage engine operations, matching the taxonomy of
// invalid-argument / not-found / resource-exhausted / no-space / internal.
const (
	// Argument errors (1xxx)
	ErrCodeInvalidBucketCount errors.ErrorCode = "HASHENGINE_INVALID_BUCKET_COUNT"
	ErrCodeEmptyKey           errors.ErrorCode = "HASHENGINE_EMPTY_KEY"
	ErrCodeEmptyValue         errors.ErrorCode = "HASHENGINE_EMPTY_VALUE"

	// Operation errors (2xxx)
	ErrCodeKeyNotFound       errors.ErrorCode = "HASHENGINE_KEY_NOT_FOUND"
	ErrCodeNoSpace           errors.ErrorCode = "HASHENGINE_NO_SPACE"
	ErrCodeResourceExhausted errors.ErrorCode = "HASHENGINE_RESOURCE_EXHAUSTED"

	// Internal errors (5xxx) - should be unreachable in a correct implementation
	ErrCodeInternal errors.ErrorCode = "HASHENGINE_INTERNAL_ERROR"
)

// Common error messages
const (
	msgInvalidBucketCount = "invalid bucket count: must be greater than 0"
	msgEmptyKey           = "key cannot be empty"
	msgEmptyValue         = "value cannot be empty"
	msgKeyNotFound        = "key not found"
	msgNoSpace            = "table is saturated at maximum bucket count"
	msgResourceExhausted  = "allocation failed"
	msgInternal           = "internal hash engine error"
)

// =============================================================================
// ARGUMENT ERRORS
// =============================================================================

// NewErrInvalidBucketCount creates an error for a non-positive initial
// bucket count passed to NewEngine.
func NewErrInvalidBucketCount(requested int) error {
	return errors.NewWithContext(ErrCodeInvalidBucketCount, msgInvalidBucketCount, map[string]interface{}{
		"requested":        requested,
		"minimum_required": 1,
	})
}

// NewErrEmptyKey creates an error when an operation is called with a
// zero-length key.
func NewErrEmptyKey(operation string) error {
	return errors.NewWithField(ErrCodeEmptyKey, msgEmptyKey, "operation", operation)
}

// NewErrEmptyValue creates an error when Put is called with a zero-length
// value.
func NewErrEmptyValue() error {
	return errors.NewWithField(ErrCodeEmptyValue, msgEmptyValue, "operation", "put")
}

// =============================================================================
// OPERATION ERRORS
// =============================================================================

// NewErrKeyNotFound creates an error when a key is absent from both tables.
func NewErrKeyNotFound(key []byte) error {
	return errors.NewWithField(ErrCodeKeyNotFound, msgKeyNotFound, "key", fmt.Sprintf("%x", key))
}

// NewErrNoSpace creates an error when Put cannot find a slot because the
// table is already at MaxBuckets and fully occupied. Put also returns it
// when the probe chain is exhausted while an earlier resize is still
// draining, because a second resize cannot start until that one ends.
// Retryable once a Delete has freed capacity.
func NewErrNoSpace(bucketCount uint32) error {
	return errors.NewWithContext(ErrCodeNoSpace, msgNoSpace, map[string]interface{}{
		"bucket_count": bucketCount,
	}).AsRetryable()
}

// NewErrResourceExhausted creates an error when allocating a new bucket
// array (grow, shrink, or initial construction) fails. Retryable once
// memory pressure subsides.
func NewErrResourceExhausted(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeResourceExhausted, msgResourceExhausted).
			WithContext("operation", operation).
			AsRetryable()
	}
	return errors.NewWithField(ErrCodeResourceExhausted, msgResourceExhausted, "operation", operation).
		AsRetryable()
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

// NewErrInternal creates a generic internal error for conditions that
// should be unreachable in a correct implementation (e.g. a migration
// invariant violated).
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternal, msgInternal).
			WithContext("operation", operation).
			WithSeverity("critical")
	}
	return errors.NewWithField(ErrCodeInternal, msgInternal, "operation", operation).
		WithSeverity("critical")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsNotFound checks if err is a key-not-found error.
func IsNotFound(err error) bool {
	return errors.HasCode(err, ErrCodeKeyNotFound)
}

// IsInvalidArgument checks if err is an invalid-argument error (bad
// bucket count, empty key, or empty value).
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeInvalidBucketCount || code == ErrCodeEmptyKey || code == ErrCodeEmptyValue
	}
	return false
}

// IsNoSpace checks if err is a table-saturated error.
func IsNoSpace(err error) bool {
	return errors.HasCode(err, ErrCodeNoSpace)
}

// IsResourceExhausted checks if err is an allocation-failure error.
func IsResourceExhausted(err error) bool {
	return errors.HasCode(err, ErrCodeResourceExhausted)
}

// IsRetryable checks if the error can be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from an error, or "" if err is nil
// or does not carry a code.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the context map from an error, or nil.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var engineErr *errors.Error
	if goerrors.As(err, &engineErr) {
		return engineErr.Context
	}
	return nil
}
