package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrUnsupported = errors.New("unsupported operation")

// PlaybackErrorClass drives retry semantics and the user-visible message.
type PlaybackErrorClass string

const (
	// Retryable.
	ErrClassNetwork PlaybackErrorClass = "network"
	ErrClassMedia   PlaybackErrorClass = "media"

	// DRM classes are never auto-retried.
	ErrClassLicenseDenied      PlaybackErrorClass = "license-denied"
	ErrClassPlatformRestricted PlaybackErrorClass = "platform-restricted"
	ErrClassLicenseUnreachable PlaybackErrorClass = "license-unreachable"
)

// Retryable reports whether the class permits a user-initiated retry.
func (c PlaybackErrorClass) Retryable() bool {
	switch c {
	case ErrClassNetwork, ErrClassMedia:
		return true
	default:
		return false
	}
}

// Message returns the human-readable category for the class.
func (c PlaybackErrorClass) Message() string {
	switch c {
	case ErrClassNetwork:
		return "network error during playback"
	case ErrClassMedia:
		return "media could not be decoded"
	case ErrClassLicenseDenied:
		return "license acquisition failed"
	case ErrClassPlatformRestricted:
		return "playback restricted on this platform"
	case ErrClassLicenseUnreachable:
		return "license server unreachable"
	default:
		return "playback error"
	}
}

// ClassifiedError carries a playback error class through engine boundaries so
// the adapter can map it onto the session ErrorRecord.
type ClassifiedError struct {
	Class  PlaybackErrorClass
	Detail string
}

func (e *ClassifiedError) Error() string {
	if e.Detail == "" {
		return string(e.Class)
	}
	return string(e.Class) + ": " + e.Detail
}

// Classify extracts the error class, defaulting unknown errors to network.
func Classify(err error) PlaybackErrorClass {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ErrClassNetwork
}

// NewErrorRecord builds the session ErrorRecord for a classified failure.
func NewErrorRecord(class PlaybackErrorClass, detail string) ErrorRecord {
	msg := class.Message()
	if detail != "" {
		msg = msg + ": " + detail
	}
	return ErrorRecord{Message: msg, CanRetry: class.Retryable()}
}
