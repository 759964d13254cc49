// Package apperr defines the error taxonomy shared by the licensing and
// deployment components and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidationInput Kind = "VALIDATION_INPUT"
	KindNotFound        Kind = "NOT_FOUND"
	KindLicenseExpired  Kind = "LICENSE_EXPIRED"
	KindLicenseInactive Kind = "LICENSE_INACTIVE"
	KindAuth            Kind = "AUTH"
	KindTemplateFormat  Kind = "TEMPLATE_FORMAT"
	KindRemoteAPI       Kind = "REMOTE_API"
	KindTransport       Kind = "TRANSPORT"
	KindInternal        Kind = "INTERNAL"
)

// HTTPStatus maps the kind to the status code the API layer answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidationInput, KindTemplateFormat:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindLicenseExpired, KindLicenseInactive:
		return http.StatusForbidden
	case KindAuth, KindRemoteAPI, KindTransport, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	// Status and Body carry the upstream response of the resource-management API.
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidationInput = &Error{Kind: KindValidationInput}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrLicenseExpired  = &Error{Kind: KindLicenseExpired}
	ErrLicenseInactive = &Error{Kind: KindLicenseInactive}
	ErrAuth            = &Error{Kind: KindAuth}
	ErrTemplateFormat  = &Error{Kind: KindTemplateFormat}
	ErrRemoteAPI       = &Error{Kind: KindRemoteAPI}
	ErrTransport       = &Error{Kind: KindTransport}
)

func ValidationInput(msg string) error {
	return &Error{Kind: KindValidationInput, Message: msg}
}

func NotFound(msg string, err error) error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

func LicenseExpired(msg string) error {
	return &Error{Kind: KindLicenseExpired, Message: msg}
}

func LicenseInactive(msg string) error {
	return &Error{Kind: KindLicenseInactive, Message: msg}
}

// Auth wraps a credential exchange failure. The message must never include secrets.
func Auth(msg string, err error) error {
	return &Error{Kind: KindAuth, Message: msg, Err: err}
}

func TemplateFormat(msg string, err error) error {
	return &Error{Kind: KindTemplateFormat, Message: msg, Err: err}
}

func RemoteAPI(msg string, status int, body string) error {
	return &Error{Kind: KindRemoteAPI, Message: msg, Status: status, Body: body}
}

func Transport(msg string, err error) error {
	return &Error{Kind: KindTransport, Message: msg, Err: err}
}

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus returns the status code for err.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}
