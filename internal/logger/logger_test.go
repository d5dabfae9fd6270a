package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn")
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud")
	assert.Error(t, err)
}
