package userdesk

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

// Messages that are deliberately uninformative: credential and verification
// failures share one message across their distinct causes so callers cannot
// enumerate accounts.
const (
	MsgInvalidCredentials = "Authentication failed. Invalid username or password."
	MsgVerificationFailed = "Either the user does not exist, the email is already verified or there is no existing user secret."
)

// ErrInvalidCredentials covers missing user, non-active status, and wrong
// password on login.
var ErrInvalidCredentials = errors.New(MsgInvalidCredentials, errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeBadRequest)

// ErrVerificationFailed covers every precondition failure of the verify flow.
var ErrVerificationFailed = errors.New(MsgVerificationFailed, errors.CategoryAuth).
	WithTextCode("VERIFICATION_FAILED").
	WithCode(errors.CodeBadRequest)

// ErrMustAgreeToTerms is returned when a registration request does not carry
// the terms agreement.
var ErrMustAgreeToTerms = errors.New("You must agree to the terms to continue.", errors.CategoryValidation).
	WithTextCode("TERMS_NOT_AGREED").
	WithCode(errors.CodeBadRequest)

// ErrDuplicateUsername leaks existence on purpose, registration intent is
// explicit at this point.
var ErrDuplicateUsername = errors.New("Username already exists.", errors.CategoryConflict).
	WithTextCode("DUPLICATE_USERNAME").
	WithCode(errors.CodeBadRequest)

// ErrCodeDeliveryFailed signals the external email channel rejected the send.
// The user shell created before dispatch is not rolled back.
var ErrCodeDeliveryFailed = errors.New("Failed to send email.", errors.CategoryOperation).
	WithTextCode("CODE_DELIVERY_FAILED").
	WithCode(errors.CodeInternal)

// ErrUnauthorized is returned when no valid session accompanies a request.
var ErrUnauthorized = errors.New("Unauthorized. Please login first.", errors.CategoryAuth).
	WithTextCode("UNAUTHORIZED").
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when the session user lacks the required role.
var ErrForbidden = errors.New("Unauthorized. Only root users can create new users.", errors.CategoryAuthz).
	WithTextCode("FORBIDDEN").
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString rejects blank required inputs before any store access.
var ErrNoEmptyString = errors.New("value cannot be an empty string", errors.CategoryValidation).
	WithTextCode("EMPTY_STRING").
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal sentinel for a failed bcrypt
// comparison. Handlers translate it to ErrInvalidCredentials.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithTextCode("BAD_PASSWORD").
	WithCode(errors.CodeUnauthorized)

// HTTPStatusFor maps an error to the status the HTTP layer should emit.
// Rich errors carry their status; anything else is an internal failure.
func HTTPStatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Code > 0 {
		return richErr.Code
	}

	return http.StatusInternalServerError
}

// ErrorMessageFor extracts the user facing message for an error response.
func ErrorMessageFor(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return "An unexpected server error occurred"
}
