package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gpt2webui/internal/openwebui"
)

const export = `[{"id":"c1","title":"T","mapping":{"a":{"message":{"author":{"role":"user"},"id":"m1","content":{"parts":["hi"]},"create_time":100}}}}]`

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestConvertCommand_RunsTwiceIdempotently(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "export.json")
	output := filepath.Join(dir, "out.json")
	ledgerPath := filepath.Join(dir, "state", "imported.db")
	require.NoError(t, os.WriteFile(input, []byte(export), 0o644))

	args := []string{"convert", "--input", input, "--output", output, "--ledger", ledgerPath, "--ledger-driver", "sqlite", "--user-id", "u1", "--log-level", "error"}
	require.NoError(t, run(t, args...))

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	chats, err := openwebui.ParseChats(b)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, "u1", chats[0].UserID)

	require.NoError(t, run(t, args...))
	b, err = os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "[]", string(b))

	require.NoError(t, run(t, "ledger", "list", "--ledger", ledgerPath, "--ledger-driver", "sqlite", "--log-level", "error"))
}

func TestConvertCommand_MissingInputIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.json")
	err := run(t, "--input", filepath.Join(dir, "missing.json"), "--output", output,
		"--ledger", filepath.Join(dir, "imported.json"), "--log-level", "error")
	require.NoError(t, err)
	_, statErr := os.Stat(output)
	require.True(t, os.IsNotExist(statErr))
}

func TestValidateCommand_FailsOnBadExport(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"id": 1}]`), 0o644))
	err := run(t, "validate", "--input", input, "--ledger", filepath.Join(dir, "imported.json"), "--log-level", "error")
	require.EqualError(t, err, "validation failed")
}

func TestRootCommand_RejectsUnknownLedgerDriver(t *testing.T) {
	dir := t.TempDir()
	err := run(t, "ledger", "list", "--ledger", filepath.Join(dir, "x"), "--ledger-driver", "bolt")
	require.ErrorContains(t, err, "ledger driver")
}

func TestRootCommand_RejectsUnknownLogLevel(t *testing.T) {
	dir := t.TempDir()
	err := run(t, "ledger", "list", "--ledger", filepath.Join(dir, "x"), "--log-level", "verbose")
	require.ErrorContains(t, err, "log level")
}
