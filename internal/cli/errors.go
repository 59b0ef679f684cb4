package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2zod/internal/config"
	"github.com/mark3labs/swagger2zod/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// friendlyError maps structured document and configuration errors to usage
// errors. Other errors are returned unchanged.
func friendlyError(err error, outDir string) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		msg := fmt.Sprintf("spec: %s", strings.TrimPrefix(se.Message, "spec: "))
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
		}
		return newUsageError(msg)
	}
	if errors.Is(err, config.ErrInvalid) {
		return newUsageError(err.Error())
	}

	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") ||
		strings.Contains(lower, "rename") || strings.Contains(lower, "not generated by swagger2zod") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}
