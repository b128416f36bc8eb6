package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrTemporary         = errors.New("temporary failure")
)

// errorKinds lists the kinds in the order KindName checks them.
var errorKinds = []struct {
	kind error
	name string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrInvoiceNotFound, "not_found"},
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrTemporary, "temporary"},
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindName returns a stable label for the kind err carries, "internal" when
// it carries none.
func KindName(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "internal"
}
