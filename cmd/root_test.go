package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "snapshot", "ledger", "history"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "departures", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("hold")
	require.NotNil(t, flag, "run command should have --hold flag")
	assert.Equal(t, "2m0s", flag.DefValue)

	noHold := runCmd.Flags().Lookup("no-hold")
	require.NotNil(t, noHold, "run command should have --no-hold flag")
	assert.Equal(t, "false", noHold.DefValue)
}

func TestSnapshotCommand_Flags(t *testing.T) {
	flag := snapshotCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "json", flag.DefValue)
}

func TestHistoryCommand_Flags(t *testing.T) {
	flag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}

func TestHistoryCommand_HasShow(t *testing.T) {
	var show bool
	for _, c := range historyCmd.Commands() {
		if c.Name() == "show" {
			show = true
		}
	}
	assert.True(t, show, "history should have subcommand \"show\"")
}
