package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelLimiter(t *testing.T) {
	ml := NewModelLimiter(2)
	assert.NoError(t, ml.Increment())
	assert.Equal(t, 1, ml.Remaining())
	assert.NoError(t, ml.Increment())

	assert.Equal(t, 0, ml.Remaining())

	err := ml.Increment()
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.Equal(t, 3, ml.Count())
	assert.Equal(t, 0, ml.Remaining())

	assert.Error(t, ml.Increment())
	assert.Equal(t, 0, ml.Remaining())
}

func TestModelLimiter_Unlimited(t *testing.T) {
	ml := NewModelLimiter(0)
	for i := 0; i < 50; i++ {
		assert.NoError(t, ml.Increment())
	}
	assert.Equal(t, -1, ml.Remaining())
}

func TestLoggerAdapter_NilSafe(t *testing.T) {
	la := NewLoggerAdapter(nil)
	assert.NotNil(t, la.Logger())
	la.LogDebug("d")
	la.LogInfo("i")
	la.LogWarn("w")
	la.LogError("e")
}
