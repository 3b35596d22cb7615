package googledrive

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrNotFound is returned when Drive reports no file for the given id.
	ErrNotFound = errors.New("file not found")

	// ErrForbidden is returned when the session's credentials lack access.
	ErrForbidden = errors.New("access denied")
)

// wrapAPIError maps Drive API status codes onto the package sentinels while
// keeping the upstream message.
func wrapAPIError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, gErr.Message)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrForbidden, gErr.Message)
		}
	}
	return err
}
