package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("not-a-level").GetLevel())
}

func TestNew_JSONOutput(t *testing.T) {
	log := New("info")
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	log.WithField("snapshot_id", "abc").Info("Risk run completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Risk run completed", entry["message"])
	assert.Equal(t, "abc", entry["snapshot_id"])
	assert.Equal(t, "info", entry["level"])
}
