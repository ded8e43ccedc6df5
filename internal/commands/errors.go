package commands

import (
	"context"
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/drydeck/drydeck/internal/locations"
)

const (
	codeValidationFailed = "COMMAND_VALIDATION_FAILED"
	codeContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	codeContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	codeExecuteFailed    = "COMMAND_EXECUTION_FAILED"
	codeAddressInvalid   = "ADDRESS_INVALID"
	codeAddressExists    = "ADDRESS_EXISTS"
	codeAddressNotFound  = "ADDRESS_NOT_FOUND"
)

// wrapValidationError normalises message validation failures. go-command
// already wraps Validate() results in a go-errors value, so the field errors
// are recovered from its source chain.
func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	var wrapped *goerrors.Error
	if goerrors.As(err, &wrapped) {
		wrapped = wrapped.Clone()
		wrapped.Category = goerrors.CategoryValidation
	} else {
		wrapped = goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed")
	}
	wrapped.TextCode = codeValidationFailed
	if len(wrapped.ValidationErrors) == 0 {
		wrapped.ValidationErrors = fieldErrors(err)
	}
	return wrapped
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(codeContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(codeContextCanceled)
	}
}

// wrapExecuteError categorises address service failures so transports can
// map them without importing the locations package.
func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, locations.ErrAddressInvalid):
		wrapped := goerrors.Wrap(err, goerrors.CategoryValidation, "address is invalid").
			WithTextCode(codeAddressInvalid)
		wrapped.ValidationErrors = fieldErrors(err)
		return wrapped
	case errors.Is(err, locations.ErrAddressExists):
		wrapped := goerrors.Wrap(err, goerrors.CategoryConflict, "address already exists").
			WithTextCode(codeAddressExists)
		wrapped.ValidationErrors = fieldErrors(err)
		return wrapped
	case errors.Is(err, locations.ErrAddressNotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "address not found").
			WithTextCode(codeAddressNotFound)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
			WithTextCode(codeExecuteFailed)
	}
}

func isValidationFailure(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation) || goerrors.IsCategory(err, goerrors.CategoryConflict)
}

func fieldErrors(err error) goerrors.ValidationErrors {
	if issues := locations.Issues(err); len(issues) > 0 {
		out := make(goerrors.ValidationErrors, 0, len(issues))
		for _, issue := range issues {
			out = append(out, goerrors.FieldError{Field: issue.Field, Message: issue.Message})
		}
		return out
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		out := make(goerrors.ValidationErrors, 0, len(errs))
		for field, fieldErr := range errs {
			if fieldErr != nil {
				out = append(out, goerrors.FieldError{Field: field, Message: fieldErr.Error()})
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
		return out
	}
	return nil
}
