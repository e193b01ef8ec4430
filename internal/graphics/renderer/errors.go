package renderer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies renderer failures.
type ErrorKind int

const (
	// KindNotReady: an operation ran before Initialize.
	KindNotReady ErrorKind = iota + 1
	// KindSurfaceTooSmall: the target has zero area. Callers skip the frame.
	KindSurfaceTooSmall
	// KindSwapchainOutOfDate: the swapchain must be recreated before the next frame.
	KindSwapchainOutOfDate
	// KindUnsupportedPlatform: no surface can be created here. Fatal at startup.
	KindUnsupportedPlatform
	// KindInitialization: device or resource setup failed. Fatal.
	KindInitialization
	// KindVk wraps a native API status code.
	KindVk
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotReady:
		return "not ready"
	case KindSurfaceTooSmall:
		return "surface too small"
	case KindSwapchainOutOfDate:
		return "swapchain out of date"
	case KindUnsupportedPlatform:
		return "unsupported platform"
	case KindInitialization:
		return "initialization failed"
	case KindVk:
		return "vulkan error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the error type returned across the Backend boundary.
type Error struct {
	Kind ErrorKind
	Msg  string
	// Code is the raw VkResult for KindVk.
	Code int32
	Err  error
}

var (
	ErrNotReady           = &Error{Kind: KindNotReady}
	ErrSurfaceTooSmall    = &Error{Kind: KindSurfaceTooSmall}
	ErrSwapchainOutOfDate = &Error{Kind: KindSwapchainOutOfDate}
)

func (e *Error) Error() string {
	switch {
	case e.Kind == KindVk && e.Err != nil:
		return fmt.Sprintf("%s: %v (VkResult %d)", e.Kind, e.Err, e.Code)
	case e.Kind == KindVk:
		return fmt.Sprintf("%s: VkResult %d", e.Kind, e.Code)
	case e.Msg != "":
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrSwapchainOutOfDate)
// works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// UnsupportedPlatform builds a KindUnsupportedPlatform error.
func UnsupportedPlatform(format string, args ...any) error {
	return &Error{Kind: KindUnsupportedPlatform, Msg: fmt.Sprintf(format, args...)}
}

// Initialization builds a KindInitialization error.
func Initialization(format string, args ...any) error {
	return &Error{Kind: KindInitialization, Msg: fmt.Sprintf(format, args...)}
}

// VkError tags a native status code. err carries the library's description.
func VkError(code int32, err error) error {
	return &Error{Kind: KindVk, Code: code, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

// IsRecoverable reports whether a per-frame error should only skip the frame.
func IsRecoverable(err error) bool {
	switch KindOf(err) {
	case KindSurfaceTooSmall, KindSwapchainOutOfDate:
		return true
	}
	return false
}
