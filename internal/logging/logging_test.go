package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(&buf, "json", false)
	require.NoError(t, err)

	Component(logger, "session").WithField("player", "ana").Info("Player joined")
	Component(logger, "session").Debug("hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Player joined", entry["msg"])
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, "ana", entry["player"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewWithOutput_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(&buf, "text", true)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewWithOutput_UnknownFormat(t *testing.T) {
	_, err := NewWithOutput(&bytes.Buffer{}, "xml", false)
	assert.Error(t, err)
}
