package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeep_FailOpen(t *testing.T) {
	r := Default()

	// KEY columns are kept, SUPPLEMENTARY pruned.
	assert.True(t, r.Keep("schedule", "game_id"))
	assert.False(t, r.Keep("schedule", "venue"))

	// Column with no classification entry is kept.
	assert.True(t, r.Keep("schedule", "brand_new_column"))

	// Dataset with no classification at all keeps everything.
	assert.True(t, r.Keep("never_registered", "anything"))
	assert.False(t, r.Classified("never_registered"))
	assert.True(t, r.Classified("play_by_play"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
datasets:
  schedule:
    game_id: KEY
    everything_else: SUPPLEMENTARY
  lineups:
    lineup_id: KEY
`), 0644))

	r := Default()
	require.NoError(t, r.LoadFile(path))

	// File replaces the built-in schedule table wholesale.
	assert.True(t, r.Keep("schedule", "game_id"))
	assert.False(t, r.Keep("schedule", "everything_else"))
	assert.True(t, r.Keep("schedule", "venue")) // no longer classified → kept

	assert.True(t, r.Classified("lineups"))
	assert.True(t, r.Keep("lineups", "lineup_id"))
}

func TestLoadFile_MissingIsNotAnError(t *testing.T) {
	r := Default()
	require.NoError(t, r.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.True(t, r.Classified("schedule"))
}

func TestLoadFile_BadRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
datasets:
  schedule:
    game_id: PRIMARY
`), 0644))
	err := Default().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}
