// Package apperr defines the error kinds shared by the session, feed and
// upload components. Callers branch on Kind or use errors.As on the
// concrete types; every type wraps its cause so errors.Is keeps working.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation_error"
	KindCredential Kind = "credential_error"
	KindSignup     Kind = "signup_error"
	KindAuth       Kind = "auth_error"
	KindBusy       Kind = "busy"
	KindFetch      Kind = "fetch_error"
	KindUpload     Kind = "upload_error"
	KindInsert     Kind = "insert_error"
	KindNotFound   Kind = "not_found"
	KindEmptyPost  Kind = "empty_post"
	KindInternal   Kind = "internal_error"
)

// Kinded is implemented by every error in this package.
type Kinded interface {
	error
	Kind() Kind
}

// KindOf reports the kind of the first Kinded error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// ValidationError is raised before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Kind() Kind { return KindValidation }

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AuthError is a rejection returned by the remote auth service. Message is
// user facing.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }
func (e *AuthError) Kind() Kind    { return KindAuth }

// CredentialError is a sign-in rejected by the remote service.
type CredentialError struct{ Err error }

func (e *CredentialError) Error() string { return "sign in failed: " + causeMessage(e.Err) }
func (e *CredentialError) Unwrap() error { return e.Err }
func (e *CredentialError) Kind() Kind    { return KindCredential }

// SignupError is a registration rejected by the remote service.
type SignupError struct{ Err error }

func (e *SignupError) Error() string { return "sign up failed: " + causeMessage(e.Err) }
func (e *SignupError) Unwrap() error { return e.Err }
func (e *SignupError) Kind() Kind    { return KindSignup }

// BusyError rejects a command while another transition is in flight.
type BusyError struct {
	Op    string
	State string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s rejected: session is %s", e.Op, e.State)
}

func (e *BusyError) Kind() Kind { return KindBusy }

// FetchError is a failed read; the previous state is preserved.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return e.Op + ": " + causeMessage(e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }
func (e *FetchError) Kind() Kind    { return KindFetch }

// UploadError is a failed object upload. No row was inserted.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %s", e.Key, causeMessage(e.Err))
}
func (e *UploadError) Unwrap() error { return e.Err }
func (e *UploadError) Kind() Kind    { return KindUpload }

// InsertError is a failed row insert. ImageURL is set when the image had
// already been uploaded and can be reused by a retry.
type InsertError struct {
	ImageURL string
	Err      error
}

func (e *InsertError) Error() string { return "insert post: " + causeMessage(e.Err) }
func (e *InsertError) Unwrap() error { return e.Err }
func (e *InsertError) Kind() Kind    { return KindInsert }

// NotFoundError is a missing row. It is never fatal.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Resource, e.ID) }
func (e *NotFoundError) Kind() Kind    { return KindNotFound }

// EmptyPostError rejects a post with neither caption nor image.
type EmptyPostError struct{}

func (e *EmptyPostError) Error() string { return "add a caption or select an image" }
func (e *EmptyPostError) Kind() Kind    { return KindEmptyPost }

func causeMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
