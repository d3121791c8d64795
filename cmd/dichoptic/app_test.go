package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/dichoptic/internal/client"
)

func TestEnvDuration(t *testing.T) {
	d, err := envDuration("DICHOPTIC_TEST_TIMEOUT", 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	t.Setenv("DICHOPTIC_TEST_TIMEOUT", "1500ms")
	d, err = envDuration("DICHOPTIC_TEST_TIMEOUT", 0)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	t.Setenv("DICHOPTIC_TEST_TIMEOUT", "20")
	d, err = envDuration("DICHOPTIC_TEST_TIMEOUT", 0)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, d)

	t.Setenv("DICHOPTIC_TEST_TIMEOUT", "soon")
	_, err = envDuration("DICHOPTIC_TEST_TIMEOUT", 0)
	assert.Error(t, err)
}

func TestSettingsResetSignedOut(t *testing.T) {
	dir := t.TempDir()
	session := filepath.Join(dir, "session.json")
	local := client.NewFileSettingsStore(filepath.Join(dir, "settings.json"))
	require.NoError(t, local.Save(client.Settings{LeftEyeColor: "#00FF00", RightEyeColor: "#FF00FF", EyeDominance: "right-active"}))

	// nothing listens here; a signed-out reset must stay local
	cmd := newRootCommand()
	cmd.SetArgs([]string{"settings", "reset", "--session-file", session, "--api-url", "http://127.0.0.1:1"})
	require.NoError(t, cmd.Execute())

	got, err := local.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, client.DefaultSettings().LeftEyeColor, got.LeftEyeColor)
	assert.Equal(t, "left-active", got.EyeDominance)

	_, err = os.Stat(session)
	assert.True(t, os.IsNotExist(err))
}
