// Package clipboard wraps the system clipboard used for invite links.
package clipboard

import (
	"errors"
	"fmt"

	cb "github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("no clipboard utility available")

func Available() bool { return !cb.Unsupported }

func Read() (string, error) {
	if cb.Unsupported {
		return "", ErrUnavailable
	}
	return cb.ReadAll()
}

func Copy(text string) error {
	if cb.Unsupported {
		return ErrUnavailable
	}
	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

// Verify writes probe, reads it back and restores the previous contents.
func Verify(probe string) (string, error) {
	prev, err := Read()
	if err != nil {
		return "", fmt.Errorf("clipboard read: %w", err)
	}
	defer cb.WriteAll(prev)

	if err := Copy(probe); err != nil {
		return "", err
	}
	got, err := Read()
	if err != nil {
		return "", fmt.Errorf("clipboard read: %w", err)
	}
	if got != probe {
		return "", fmt.Errorf("clipboard round-trip mismatch: got %q", got)
	}
	return "write/read OK", nil
}
