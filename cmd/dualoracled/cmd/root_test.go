package cmd

import (
	"bytes"
	"encoding/json"
	"go/format"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"start", "dry-run", "feeds", "validate-genesis", "export", "pause", "resume"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, cmd.Name())
	}
}

func TestValidateGenesisCommand(t *testing.T) {
	out, err := execRoot(t, "validate-genesis", filepath.Join("testdata", "genesis.json"))
	require.NoError(t, err)
	require.Contains(t, out, "is valid")
	require.Contains(t, out, "feeds=2")

	_, err = execRoot(t, "validate-genesis", filepath.Join("testdata", "missing.json"))
	require.Error(t, err)
}

func TestPauseExportCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DUALORACLE_DB_BACKEND", "goleveldb")
	t.Setenv("DUALORACLE_GENESIS", filepath.Join("testdata", "genesis.json"))

	out, err := execRoot(t, "--home", home, "pause", "oracle", "upgrade")
	require.NoError(t, err)
	require.Contains(t, out, "committed version 2")

	out, err = execRoot(t, "--home", home, "export")
	require.NoError(t, err)
	var genesis types.GenesisState
	require.NoError(t, json.Unmarshal([]byte(out), &genesis))
	require.True(t, genesis.Params.Paused)
	require.Equal(t, "oracle upgrade", genesis.Params.PauseReason)
	require.Len(t, genesis.Feeds, 2)

	_, err = execRoot(t, "--home", home, "pause", "--actor", "mallory")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	out, err = execRoot(t, "--home", home, "feeds")
	require.NoError(t, err)
	require.Contains(t, out, "SLOT-ETH")
	require.Contains(t, out, "stream-a:7")

	_, err = execRoot(t, "--home", home, "resume", "--actor", "dualoracle-admin")
	require.NoError(t, err)
}

func TestCommandSourcesAreFormatted(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		src, err := os.ReadFile(name)
		require.NoError(t, err)
		formatted, err := format.Source(src)
		require.NoError(t, err, name)
		require.Equal(t, string(formatted), string(src), "%s is not gofmt-formatted", name)
	}
}
