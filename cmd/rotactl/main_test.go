package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const talksCSV = `id,code,stream,slot,venue,time,day,title,speaker,description,priority
1,,,,Big Top,10:00 AM,Friday,Opening,Ann,Welcome,1
2,,,,Canopy,11:30 AM,Friday,Workshop,Bo,Hands on,
`

const recordersCSV = `name,max_shifts_per_day
alice,2
bob,1
`

// setupCLI points the config at a throwaway sqlite file and storage dir.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("ROTA_DATABASE_DRIVER", "sqlite")
	t.Setenv("ROTA_DATABASE_PATH", filepath.Join(dir, "rota.sqlite"))
	t.Setenv("ROTA_STORAGE_PROVIDER", "local")
	t.Setenv("ROTA_STORAGE_LOCAL_PATH", filepath.Join(dir, "exports"))
	t.Setenv("ROTA_EVENT_TIMEZONE", "UTC")
	t.Setenv("ROTA_SERVER_JWT_SECRET", "cli-secret")
	t.Setenv("ROTA_SERVER_LOG_LEVEL", "error")

	current = app{}
	dryRun = false
	exportFormat = ""
	t.Cleanup(func() {
		if current.db != nil {
			if sqlDB, err := current.db.DB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		current = app{}
	})
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestTokenCommand(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "token", "sam", "--role", "recorder")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)

	_, err = execute(t, "token", "sam", "--role", "dj")
	assert.ErrorContains(t, err, "unknown role")
}

func TestImportGenerateExport(t *testing.T) {
	dir := setupCLI(t)

	out, err := execute(t, "import", "talks", writeFile(t, dir, "talks.csv", talksCSV))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 talks")

	out, err = execute(t, "import", "recorders", writeFile(t, dir, "recorders.csv", recordersCSV))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 recorders")

	out, err = execute(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "Assigned 1/1 priority talks and 1/1 additional talks.")
	assert.NotContains(t, out, "dry run")

	out, err = execute(t, "export", "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "day,start,end,venue,talk_id,title,speaker,priority,recorder"))
	assert.Equal(t, 1, strings.Count(out, "alice"))
	assert.Equal(t, 1, strings.Count(out, "bob"))

	out, err = execute(t, "export", "--format", "")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Published rota/"))
}

func TestImportMissingFile(t *testing.T) {
	dir := setupCLI(t)

	_, err := execute(t, "import", "talks", filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)
}

func TestSettingsCommands(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "settings", "set", "shift_length", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "shift_length = 4 hours")

	_, err = execute(t, "settings", "set", "shift_length", "0")
	assert.Error(t, err)

	_, err = execute(t, "settings", "set", "shift_length", "four")
	assert.ErrorContains(t, err, "whole number")

	out, err = execute(t, "settings", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Regexp(t, `shift_length\s+4\s+hours`, out)
}
