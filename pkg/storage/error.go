package storage

import "errors"

// ErrNotFound is returned when a profile doesn't exist in the store.
type ErrNotFound struct {
	Phone string
}

func (e ErrNotFound) Error() string {
	if e.Phone == "" {
		return "profile not found"
	}

	return "profile not found: " + e.Phone
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
