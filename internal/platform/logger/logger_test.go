package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json debug", func(t *testing.T) {
		l, err := New("debug", "json")
		require.NoError(t, err)
		assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
	})

	t.Run("empty level defaults to info", func(t *testing.T) {
		l, err := New("", "console")
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New("loud", "json")
		assert.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := New("info", "xml")
		assert.Error(t, err)
	})
}
