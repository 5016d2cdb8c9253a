package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeValidation, "unknown regulation code")
		assert.True(t, HasCode(err, CodeValidation))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches nested code through fmt wrapping", func(t *testing.T) {
		inner := New(CodeNotFound, "row missing")
		outer := Wrap(fmt.Errorf("load: %w", inner), CodeReadInconsistency, "edit plan")
		assert.True(t, HasCode(outer, CodeReadInconsistency))
		assert.True(t, HasCode(outer, CodeNotFound))
		assert.Equal(t, CodeReadInconsistency, CodeOf(outer))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("wrap of nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
	})
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(errors.New("disk full"), CodeWriteFailed, "insert plan_regulation")
	assert.Equal(t, "insert plan_regulation: disk full", err.Error())
	assert.Equal(t, "group missing", Newf(CodeNotFound, "%s missing", "group").Error())
}
