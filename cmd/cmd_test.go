// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
	"github.com/xkilldash9x/quickfinder/internal/browser/stealth"
	"github.com/xkilldash9x/quickfinder/internal/config"
	"github.com/xkilldash9x/quickfinder/internal/observability"
	"github.com/xkilldash9x/quickfinder/internal/orchestrator"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd_Version(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "quickfinder version "+Version+"\n", out)
}

func TestProfileCmd(t *testing.T) {
	cfgPath := createTempConfig(t, `
logger:
  level: error
browser:
  headless: true
workflow:
  profiles:
    user_agents: ["Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0"]
    viewports: [{width: 1024, height: 768}]
    locales: ["de-DE"]
    accept_languages: ["de-DE,de;q=0.9"]
`)
	out, err := executeCommand(t, "--config", cfgPath, "profile", "--seed", "7")
	require.NoError(t, err)

	var got profileOutput
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0", got.Profile.UserAgent)
	assert.Equal(t, schemas.Size{Width: 1024, Height: 768}, got.Profile.Viewport)
	assert.Equal(t, "de-DE", got.Profile.Locale)
	assert.Equal(t, "Linux x86_64", got.Profile.Platform)
	assert.Equal(t, true, got.Flags["headless"])

	again, err := executeCommand(t, "--config", cfgPath, "profile", "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, out, again, "the same seed samples the same profile")
}

func TestRootCmd_BadConfigFile(t *testing.T) {
	_, err := executeCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "profile")
	assert.ErrorContains(t, err, "error reading config file")

	invalid := createTempConfig(t, "workflow:\n  polling:\n    attempts: 0\n")
	_, err = executeCommand(t, "--config", invalid, "profile")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestRunCmd_RequiresCredentials(t *testing.T) {
	t.Setenv("QUICKFINDER_USERNAME", "")
	t.Setenv("QUICKFINDER_PASSWORD", "")
	_, err := executeCommand(t, "run", "--input", filepath.Join(t.TempDir(), "ids.csv"))
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

// -- runWorkflow --

func testConfig(t *testing.T, ids string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.Workflow.Portal.Username = "operator"
	cfg.Workflow.Portal.Password = "secret"
	cfg.Input.Path = filepath.Join(dir, "ids.csv")
	require.NoError(t, os.WriteFile(cfg.Input.Path, []byte(ids), 0o600))
	cfg.Output.Path = filepath.Join(dir, "results.csv")
	cfg.Output.AutoOpen = false
	return cfg
}

func TestRunWorkflow_NoIdentifiersNeverLaunches(t *testing.T) {
	cfg := testConfig(t, "id\n\n  \n")
	launched := false
	launcher := orchestrator.LauncherFunc(func(context.Context, stealth.Profile) (schemas.Session, error) {
		launched = true
		return nil, errors.New("unexpected launch")
	})

	err := runWorkflow(context.Background(), cfg, zap.NewNop(), launcher)
	assert.ErrorIs(t, err, orchestrator.ErrNoIdentifiers)
	assert.False(t, launched)
}

func TestRunWorkflow_LaunchFailureIsCritical(t *testing.T) {
	cfg := testConfig(t, "id\n1001\n")
	launcher := orchestrator.LauncherFunc(func(context.Context, stealth.Profile) (schemas.Session, error) {
		return nil, errors.New("chrome not found")
	})

	err := runWorkflow(context.Background(), cfg, zap.NewNop(), launcher)
	assert.ErrorIs(t, err, orchestrator.ErrCriticalSetup)
	assert.ErrorContains(t, err, "chrome not found")
}

func TestRunWorkflow_BadInput(t *testing.T) {
	cfg := testConfig(t, "sku\n1001\n")
	err := runWorkflow(context.Background(), cfg, zap.NewNop(), cdpLauncher(cfg, zap.NewNop()))
	assert.ErrorContains(t, err, "failed to read identifiers")
}

func TestBuildSink_FileOnly(t *testing.T) {
	cfg := testConfig(t, "id\n")
	sink, closeSink, err := buildSink(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeSink()
	assert.Equal(t, "csv:"+cfg.Output.Path, sink.Name())
}
