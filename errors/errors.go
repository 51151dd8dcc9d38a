/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Error codes understood or produced by the wrapper.
const (
	CodeProvisionedThroughputExceeded = "ProvisionedThroughputExceededException"
	CodeNotYetImplemented             = "NotYetImplementedError"
)

// MessageThroughputExceeded mirrors the message DynamoDB uses when a table is fully throttled.
const MessageThroughputExceeded = "The level of configured provisioned throughput for the table was exceeded. " +
	"Consider increasing your provisioning level with the UpdateTable API"

// Common sentinel errors
var (
	// ErrThrottled matches any error signalling exhausted table throughput
	ErrThrottled = errors.New("throughput exceeded")

	// ErrThroughputExceeded matches only the error raised when a batch group made no progress
	ErrThroughputExceeded = errors.New("batch write made no progress")

	// ErrNotYetImplemented is returned for requests using capabilities the wrapper does not support
	ErrNotYetImplemented = errors.New("not yet implemented")

	// ErrFatal matches store errors that are never retried
	ErrFatal = errors.New("non-retryable store error")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// Kind is the closed set of failure categories the wrapper distinguishes.
type Kind int

const (
	// KindFatal is any store error other than throttling. Never retried.
	KindFatal Kind = iota
	// KindThrottled is a store-signalled throughput rejection. Retried with backoff.
	KindThrottled
	// KindNotYetImplemented is a local precondition failure raised before any remote call.
	KindNotYetImplemented
	// KindThroughputExceeded is synthesized when a batch group makes zero progress.
	KindThroughputExceeded
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "Fatal"
	case KindThrottled:
		return "Throttled"
	case KindNotYetImplemented:
		return "NotYetImplemented"
	case KindThroughputExceeded:
		return "ThroughputExceeded"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the tagged error returned by every wrapper operation.
//
// Store errors keep the original SDK error in Err, so errors.As still reaches
// types such as *types.ValidationException.
type Error struct {
	Kind       Kind
	Code       string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrThrottled:
		return e.Kind == KindThrottled || e.Kind == KindThroughputExceeded
	case ErrThroughputExceeded:
		return e.Kind == KindThroughputExceeded
	case ErrNotYetImplemented:
		return e.Kind == KindNotYetImplemented
	case ErrFatal:
		return e.Kind == KindFatal
	}
	return false
}

// ErrorCode implements smithy.APIError.
func (e *Error) ErrorCode() string { return e.Code }

// ErrorMessage implements smithy.APIError.
func (e *Error) ErrorMessage() string { return e.Message }

// ErrorFault implements smithy.APIError.
func (e *Error) ErrorFault() smithy.ErrorFault {
	if e.StatusCode >= http.StatusInternalServerError {
		return smithy.FaultServer
	}
	if e.Kind == KindNotYetImplemented {
		return smithy.FaultClient
	}
	if e.StatusCode == 0 {
		return smithy.FaultUnknown
	}
	return smithy.FaultClient
}

// HTTPStatusCode returns the status the store answered with, or 0 for local errors.
func (e *Error) HTTPStatusCode() int { return e.StatusCode }

// Retryable reports whether the wrapper retries this error.
func (e *Error) Retryable() bool { return e.Kind == KindThrottled }

// Classify maps an error returned by the low-level client onto a Kind.
// Errors that are already classified are returned as-is.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	e := &Error{Kind: KindFatal, Err: err, Message: err.Error()}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
		e.Message = apiErr.ErrorMessage()
	}

	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		e.StatusCode = respErr.HTTPStatusCode()
	}

	if e.Code == CodeProvisionedThroughputExceeded {
		e.Kind = KindThrottled
	}
	return e
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewNotYetImplementedError creates an error for an unsupported capability
func NewNotYetImplementedError(message string) error {
	return &Error{
		Kind:    KindNotYetImplemented,
		Code:    CodeNotYetImplemented,
		Message: message,
	}
}

// NewThroughputExceededError creates the error raised when a batch group makes no progress.
// It is shaped like the native DynamoDB throttling error.
func NewThroughputExceededError() error {
	return &Error{
		Kind:       KindThroughputExceeded,
		Code:       CodeProvisionedThroughputExceeded,
		StatusCode: http.StatusBadRequest,
		Message:    MessageThroughputExceeded,
		Err: &types.ProvisionedThroughputExceededException{
			Message: aws.String(MessageThroughputExceeded),
		},
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsThrottled checks if an error signals exhausted throughput, native or synthesized
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// IsThroughputExceeded checks if an error is the synthesized zero-progress batch error
func IsThroughputExceeded(err error) bool {
	return errors.Is(err, ErrThroughputExceeded)
}

// IsNotYetImplemented checks if an error is a not yet implemented error
func IsNotYetImplemented(err error) bool {
	return errors.Is(err, ErrNotYetImplemented)
}

// IsFatal checks if an error is a non-retryable store error
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
