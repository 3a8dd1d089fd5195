package tasktrack

import (
	"github.com/goliatone/go-errors"
)

// ErrTokenExpired is returned by Validate for structurally sound tokens
// whose exp claim is in the past.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignatureInvalid is returned when the HMAC signature does not
// verify against the configured key.
var ErrTokenSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode("TOKEN_SIGNATURE_INVALID").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers everything else: garbage input, wrong algorithm,
// unparseable claims.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is the single error returned for both unknown
// accounts and password mismatches, so responses never reveal which
// of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is returned when no identity matches an identifier.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrUserAlreadyExists is returned by registration when the email is taken.
var ErrUserAlreadyExists = errors.New("user already exists", errors.CategoryConflict).
	WithTextCode("USER_ALREADY_EXISTS").
	WithCode(errors.CodeConflict)

// ErrNoEmptyString guards hashing and identifier lookups from empty input.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithTextCode("EMPTY_VALUE").
	WithCode(errors.CodeBadRequest)

// ErrNotTaskOwner is returned when a user touches a task they neither
// authored nor are assigned to.
var ErrNotTaskOwner = errors.New("task does not belong to user", errors.CategoryAuthz).
	WithTextCode("NOT_TASK_OWNER").
	WithCode(errors.CodeForbidden)

// ErrNotCommentOwner is returned when a user deletes a comment they did
// not write.
var ErrNotCommentOwner = errors.New("comment does not belong to user", errors.CategoryAuthz).
	WithTextCode("NOT_COMMENT_OWNER").
	WithCode(errors.CodeForbidden)
