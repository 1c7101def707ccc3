package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/pkg/config"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.InitConfigToPath(path, false))

	prev := *cmdutil.Flags
	t.Cleanup(func() { *cmdutil.Flags = prev })
	cmdutil.Flags.ConfigFile = path
	cmdutil.Flags.Output = "table"
	return path
}

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestSchema(t *testing.T) {
	schema := Schema()
	assert.Equal(t, "lotpurge Configuration", schema.Title)

	purge, ok := schema.Properties.Get("purge")
	require.True(t, ok, "purge section missing")

	high, ok := purge.Properties.Get("high_watermark")
	require.True(t, ok, "high_watermark missing")
	assert.Equal(t, "string", high.Type)

	timeout, ok := schema.Properties.Get("shutdown_timeout")
	require.True(t, ok)
	assert.Equal(t, "string", timeout.Type)

	_, ok = schema.Properties.Get("database")
	assert.True(t, ok, "database section missing")
}

func TestRunSchemaToFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "schema.json")
	schemaOutput = target
	t.Cleanup(func() { schemaOutput = "" })

	cmd, buf := newTestCmd()
	require.NoError(t, runSchema(cmd, nil))
	assert.Contains(t, buf.String(), target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "lotpurge Configuration", decoded["title"])
}

func TestRunConfigValidate(t *testing.T) {
	path := writeConfig(t)

	cmd, buf := newTestCmd()
	require.NoError(t, runConfigValidate(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, path)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "Database type:   sqlite")
	// The sample lot home does not exist in the test environment.
	assert.Contains(t, out, "/var/cache/lots")
}

func TestRunConfigValidateRejectsBadWatermarks(t *testing.T) {
	path := writeConfig(t)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Purge.LowWatermark = cfg.Purge.HighWatermark * 2
	require.NoError(t, config.SaveConfig(cfg, path))

	cmd, _ := newTestCmd()
	assert.Error(t, runConfigValidate(cmd, nil))
}

func TestRunConfigShow(t *testing.T) {
	writeConfig(t)

	t.Run("yaml by default", func(t *testing.T) {
		cmd, buf := newTestCmd()
		require.NoError(t, runConfigShow(cmd, nil))

		var shown config.Config
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &shown))
		assert.Equal(t, "/var/cache/lots del exp opp ded", shown.Purge.Params)
	})

	t.Run("json", func(t *testing.T) {
		cmdutil.Flags.Output = "json"
		cmd, buf := newTestCmd()
		require.NoError(t, runConfigShow(cmd, nil))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Contains(t, decoded, "Purge")
	})
}
