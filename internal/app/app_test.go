package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app_name": "prover",
		"data_dir": "`+dataDir+`",
		"log": {"level": "debug"},
		"prover": {"workers": 2, "profiles": {"curie": {"batch_width": 16}}}
	}`), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Prover)
	assert.Equal(t, 2, *cfg.Prover.Workers)
	assert.Equal(t, 16, *cfg.Prover.Profiles["curie"].BatchWidth)
	assert.DirExists(t, dataDir)

	empty, err := LoadConfig("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{bad`), 0600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestNew_Wiring(t *testing.T) {
	application, err := New(WithoutAPI())
	require.NoError(t, err)
	require.NoError(t, application.Err())
}
