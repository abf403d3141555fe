package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowver/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/flowver/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
	"github.com/custodia-labs/flowver/internal/core/services"
)

const startJSON = `{"id":"wf1","name":"Notify","nodes":[{"name":"Start","type":"start"}]}`

const slackJSON = `{"id":"wf1","name":"Notify","nodes":[{"name":"Start","type":"start"},{"name":"Slack","type":"slack"}],
"connections":{"Start":{"main":[[{"node":"Slack","type":"main","index":0}]]}}}`

// testEnv exposes the services installed by setupTestServices.
type testEnv struct {
	versions    *services.VersionService
	persistence *services.PersistenceService
	archive     *memory.Archive
	config      *memory.ConfigStore
}

// setupTestServices installs in-memory services and returns a cleanup func.
func setupTestServices() (*testEnv, func()) {
	env := &testEnv{
		versions: services.NewVersionService(nil),
		archive:  memory.NewArchive(),
		config:   memory.NewConfigStore(),
	}
	env.persistence = services.NewPersistenceService(env.versions, env.archive)

	resetFlags(rootCmd)
	SetBootstrap(nil)
	SetServices(&Services{
		Versions:    env.versions,
		Persistence: env.persistence,
		Settings:    services.NewSettingsService(env.config),
		OpenArchive: func(path string) (driven.VersionArchive, func() error, error) {
			a, err := jsonfile.NewArchive(path)
			return a, func() error { return nil }, err
		},
	})

	return env, func() {
		SetServices(&Services{})
		watchSettings = domain.DefaultSettings().Watch
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd_Flags(t *testing.T) {
	for _, name := range []string{"verbose", "config", "store", "backend", "lock-timeout"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{
		"create", "bump", "compare", "diff", "suggest", "list", "latest", "show",
		"export", "import", "verify", "changelog", "watch", "browse", "mcp", "settings", "version",
	} {
		assert.Contains(t, names, want)
	}
}

func TestSetup_Bootstrap(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	var got Options
	SetBootstrap(func(opts Options) (*Services, error) {
		got = opts
		versions := services.NewVersionService(nil)
		return &Services{
			Versions:    versions,
			Persistence: services.NewPersistenceService(versions, memory.NewArchive()),
		}, nil
	})
	defer SetBootstrap(nil)

	out, err := execute("--store", "/tmp/s.db", "--backend", "sqlite", "--lock-timeout", "2s", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No workflows recorded.")
	assert.Equal(t, "/tmp/s.db", got.StorePath)
	assert.Equal(t, "sqlite", got.Backend)
	assert.Equal(t, "2s", got.LockTimeout.String())
}

func TestSetup_BootstrapError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	SetBootstrap(func(Options) (*Services, error) {
		return nil, domain.ErrInvalidInput
	})
	defer SetBootstrap(nil)

	_, err := execute("list")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetup_LoadsPersistedStore(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	// Another process saved wf-other into the same archive.
	other := services.NewVersionService(nil)
	_, err := other.CreateVersion(context.Background(), "wf-other", domain.WorkflowDocument{"name": "x"}, "")
	require.NoError(t, err)
	require.NoError(t, services.NewPersistenceService(other, env.archive).Save(context.Background()))

	out, err := execute("list")
	require.NoError(t, err)
	assert.Contains(t, out, "wf-other")
}

func TestSetup_CorruptedStore(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.archive.SetRaw([]byte("{not json"))

	_, err := execute("list")
	assert.ErrorIs(t, err, domain.ErrCorruptedStore)
}

func TestTeardown_ClosesServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	closed := 0
	closeServices = func() error {
		closed++
		return nil
	}

	_, err := execute("list")
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
}
