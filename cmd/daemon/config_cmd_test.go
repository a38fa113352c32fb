// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/greeter/internal/config"
)

func runConfig(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runConfigCLI(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestConfigCLI_Usage(t *testing.T) {
	code, _, stderr := runConfig()
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "greeter config init")

	code, _, stderr = runConfig("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown subcommand: frobnicate")
}

func TestConfigCLI_InitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.yaml")

	code, stdout, _ := runConfig("init", path)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "OK")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultYAML, string(data))

	// Refuses to clobber without --force.
	code, _, stderr := runConfig("init", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	code, _, _ = runConfig("init", "--force", path)
	assert.Equal(t, 0, code)

	code, stdout, _ = runConfig("validate", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "is valid")
}

func TestConfigCLI_ValidateFailures(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("listenAddr: \":8080\"\ncolour: blue\n"), 0o600))
	code, _, stderr := runConfig("validate", unknown)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "FAIL")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("session:\n  backend: redis\n"), 0o600))
	code, _, stderr = runConfig("validate", invalid)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Session.RedisAddr")

	code, _, _ = runConfig("validate")
	assert.Equal(t, 2, code)
}

func TestConfigCLI_Dump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("secretKey: s3cr3t\nlogLevel: debug\n"), 0o600))

	code, stdout, _ := runConfig("dump", path)
	require.Equal(t, 0, code)

	var fromYAML config.FileConfig
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &fromYAML))
	assert.Equal(t, "debug", fromYAML.LogLevel)
	assert.Equal(t, config.RedactedValue, fromYAML.SecretKey)

	code, stdout, _ = runConfig("dump", "--format=json", path)
	require.Equal(t, 0, code)

	var fromJSON config.FileConfig
	require.NoError(t, json.Unmarshal([]byte(stdout), &fromJSON))
	assert.Equal(t, fromYAML.Session, fromJSON.Session)

	code, _, stderr := runConfig("dump", "--format=toml", path)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unsupported format")
}
