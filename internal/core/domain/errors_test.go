package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(ErrTemporary, "save invoice", cause)

	assert.True(t, IsKind(err, ErrTemporary))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save invoice: temporary failure: disk full", err.Error())
	assert.NoError(t, WrapError(ErrTemporary, "noop", nil))
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "not_found", KindName(fmt.Errorf("get: %w", ErrInvoiceNotFound)))
	assert.Equal(t, "unsupported_format", KindName(WrapError(ErrUnsupportedFormat, "extract", errors.New("tiff"))))
	assert.Equal(t, "internal", KindName(errors.New("boom")))
}
