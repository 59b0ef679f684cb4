package spec

import "errors"

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError         ErrorCode = "InputError"
	NetworkError       ErrorCode = "NetworkError"
	ParseError         ErrorCode = "ParseError"
	ValidationError    ErrorCode = "ValidationError"
	ConversionError    ErrorCode = "ConversionError"
	UnsupportedDialect ErrorCode = "UnsupportedDialect"
)

var (
	// ErrUnsupportedDialect matches loader errors for documents that are
	// neither Swagger 2.x nor OpenAPI 3.x.
	ErrUnsupportedDialect = errors.New("spec: unsupported document dialect")

	// ErrMalformedOperation marks path item entries that are skipped.
	ErrMalformedOperation = errors.New("spec: malformed operation")

	// ErrNotOperation marks path item keys that are not HTTP methods.
	ErrNotOperation = errors.New("spec: not an operation")
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

func (e *SpecError) Is(target error) bool {
	return target == ErrUnsupportedDialect && e.Code == UnsupportedDialect
}
