// Package apperr defines the error taxonomy shared by stores, the resolver and the API.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidRating = errors.New("invalid rating")
	ErrInvalidInput  = errors.New("invalid input")

	ErrInvalidKey          = errors.New("invalid recipe key")
	ErrCustomRecipeMissing = errors.New("custom recipe missing")

	ErrRemoteUnauthorized = errors.New("remote: unauthorized")
	ErrRemoteRateLimited  = errors.New("remote: rate limited")
	ErrRemoteNotFound     = errors.New("remote: recipe not found")
	ErrRemoteTransient    = errors.New("remote: transient failure")

	// ErrStorageCorrupt aborts store construction; the backing file does not
	// match the expected layout.
	ErrStorageCorrupt = errors.New("storage corrupt")
	// ErrStorageIO means a write of the backing file failed.
	ErrStorageIO = errors.New("storage write failed")
)

// RemoteTransientError carries the upstream status for failures that are not
// otherwise classified. Status is 0 when the request never got a response.
type RemoteTransientError struct {
	Status int
	Err    error
}

func (e *RemoteTransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote: transient failure (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("remote: transient failure (status %d)", e.Status)
}

func (e *RemoteTransientError) Is(target error) bool {
	return target == ErrRemoteTransient
}

func (e *RemoteTransientError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error from the service layer to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidRating), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCustomRecipeMissing), errors.Is(err, ErrRemoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrRemoteUnauthorized):
		return http.StatusBadGateway
	case errors.Is(err, ErrRemoteRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrRemoteTransient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing wording for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidKey):
		return "recipe reference is not valid"
	case errors.Is(err, ErrInvalidRating):
		return "rating must be between 0 and 5 in half-star steps"
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	case errors.Is(err, ErrCustomRecipeMissing):
		return "this recipe you created no longer exists"
	case errors.Is(err, ErrRemoteNotFound):
		return "this external recipe could not be found"
	case errors.Is(err, ErrRemoteUnauthorized):
		return "recipe service credentials are invalid or expired"
	case errors.Is(err, ErrRemoteRateLimited):
		return "recipe service quota exceeded, try again later"
	case errors.Is(err, ErrRemoteTransient):
		return "recipe service is unavailable right now"
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrNotFound):
		return err.Error()
	default:
		return "internal error"
	}
}
