package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCause = errors.New("cause")

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(errCause, CodeConflict, "already open")

	require.Error(t, err)
	assert.ErrorIs(t, err, errCause)
	assert.True(t, HasCode(err, CodeConflict))
	assert.Equal(t, "already open: cause", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(CodeForbidden, "only the operator")

	assert.ErrorIs(t, err, New(CodeForbidden, ""))
	assert.NotErrorIs(t, err, New(CodeNotFound, ""))
}

func TestHasCodeWalksNestedDomainErrors(t *testing.T) {
	inner := Wrap(errCause, CodeInsufficientFunds, "not enough credit")
	outer := fmt.Errorf("bid: %w", inner)

	assert.True(t, HasCode(outer, CodeInsufficientFunds))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(errCause, CodeInternal))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	assert.Equal(t, CodeInternal, CodeOf(errCause))
	assert.Equal(t, "missing", MessageOf(New(CodeNotFound, "missing")))
}
