package domain

import "errors"

// Domain errors.
var (
	// ErrUnknownSlot is returned for an ad placement outside the fixed six.
	ErrUnknownSlot = errors.New("unknown ad slot")

	// ErrUnknownField is returned for an ad attribute other than imageUrl/linkUrl.
	ErrUnknownField = errors.New("unknown ad field")

	// ErrUnknownKind is returned for a generation kind other than summary/questions.
	ErrUnknownKind = errors.New("unknown generation kind")

	// ErrNoImages is returned when generation is requested with nothing staged.
	ErrNoImages = errors.New("no images uploaded")

	// ErrUnsupportedImage is returned for a file outside the upload allow-list.
	ErrUnsupportedImage = errors.New("unsupported image format")

	// ErrImageTooLarge is returned when a file exceeds the upload size limit.
	ErrImageTooLarge = errors.New("image too large")

	// ErrSessionNotFound is returned when a session token is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PageError wraps an error with the page and operation that produced it.
type PageError struct {
	Page string
	Op   string
	Err  error
}

func (e *PageError) Error() string {
	if e.Page != "" {
		return e.Page + "." + e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// NewPageError creates a new PageError.
func NewPageError(page, op string, err error) *PageError {
	return &PageError{
		Page: page,
		Op:   op,
		Err:  err,
	}
}
