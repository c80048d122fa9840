package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleINI = `
[server]
ip = 127.0.0.1
port = 8080

[database]
prefix = postgres
user = pokex
pwd = secret
ip = 127.0.0.1
port = 5432
db = pokex.db
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(sampleINI), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeSample(t))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.IP)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "pokex.db", cfg.Database.DB)
	assert.Equal(t, "pokex.db", cfg.Database.JournalPath())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	assert.Error(t, err)
}

func TestLoad_MissingRequiredKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nip = 127.0.0.1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
