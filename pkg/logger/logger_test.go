package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { log = zap.NewNop() })

	require.NoError(t, Init("debug"))
	assert.True(t, Logger().Core().Enabled(zap.DebugLevel))
	assert.NotNil(t, Sugar())

	require.NoError(t, Init("warn"))
	assert.False(t, Logger().Core().Enabled(zap.InfoLevel))
}

func TestInit_InvalidLevel(t *testing.T) {
	assert.Error(t, Init("verbose"))
}
