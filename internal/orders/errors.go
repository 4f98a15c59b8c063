package orders

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the HTTP layer can map them without
// inspecting messages.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindInvalidState      Kind = "invalid_state"
	KindStorageFailure    Kind = "storage_failure"
)

type Error struct {
	Kind    Kind
	Message string
	// Available is only meaningful for KindInsufficientStock.
	Available int
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func InsufficientStock(productID string, available int) error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("product %s has only %d items left", productID, available),
		Available: available,
	}
}

func InvalidState(msg string) error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func StorageFailure(msg string, err error) error {
	return &Error{Kind: KindStorageFailure, Message: msg, Err: err}
}

// KindOf reports the kind of err. Errors that carry no kind are treated as
// storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageFailure
}

func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// AsError returns the typed error in err's chain, wrapping untyped errors as
// storage failures.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindStorageFailure, Message: "storage failure", Err: err}
}
