package auth

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrAuthRequired reports that no refresh path exists: there is no cached
// refresh token, or the authorization server rejected the credential it was
// shown. Recovery always goes through the operator: visit the authorize
// URL and supply a fresh authorization code.
var ErrAuthRequired = errors.New("authentication required")

// NetworkError reports a failed exchange with the authorization server
// that re-authentication would not fix: a transport fault or a server-side
// failure. Status is the HTTP status code, 0 when no response arrived.
type NetworkError struct {
	Status int
	Body   []byte
	err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("token endpoint returned %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("token endpoint unreachable: %v", e.err)
}

func (e *NetworkError) Unwrap() error {
	return e.err
}

// wrapGrantError sorts token-endpoint failures into the package's error
// taxonomy. A 4xx response means the server deliberately rejected the
// credential, so the caller must re-authenticate; every other failure is a
// NetworkError worth retrying later with the same credentials.
func wrapGrantError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		if status >= 400 && status < 500 {
			return fmt.Errorf("%w: authorization server rejected grant: %v", ErrAuthRequired, err)
		}
		return &NetworkError{Status: status, Body: re.Body, err: err}
	}
	return &NetworkError{err: err}
}
