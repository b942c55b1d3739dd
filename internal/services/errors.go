package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks lookups for unknown series or local records.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks provider transport or rate-limit failures.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrValidation marks malformed user input.
	ErrValidation = errors.New("validation error")
	// ErrDelivery marks notification send failures.
	ErrDelivery = errors.New("delivery error")
	// ErrConfiguration marks unusable configuration detected at runtime.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserMessage maps a command-path error to the text shown in chat. Unclassified
// errors get a generic apology so internal details never reach the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "That doesn't look right. Season and episode must be whole numbers, e.g. \"2 5\"."
	case errors.Is(err, ErrNotFound):
		return "I couldn't find that series. Try a different title."
	case errors.Is(err, ErrUnavailable):
		return "The series database is unavailable right now. Please try again in a minute."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
