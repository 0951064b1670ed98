// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/matt-FFFFFF/pkgcanary/internal/batch"
	"github.com/matt-FFFFFF/pkgcanary/internal/config"
	"github.com/matt-FFFFFF/pkgcanary/internal/fetch"
	"github.com/matt-FFFFFF/pkgcanary/internal/registry"
	"github.com/matt-FFFFFF/pkgcanary/internal/supervisor"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	commands []supervisor.Command
}

func (f *fakeRunner) Run(_ context.Context, c supervisor.Command) supervisor.Outcome {
	f.commands = append(f.commands, c)
	return supervisor.Outcome{Passed: true, ElapsedMillis: 1}
}

type fakeLookup map[string]registry.Metadata

func (f fakeLookup) Lookup(_ context.Context, name string) (registry.Metadata, error) {
	return f[name], nil
}

func setup(t *testing.T, fs afero.Fs, runner *fakeRunner, gotCfg **config.Config) {
	t.Helper()

	lookup := fakeLookup{
		"lodash":   {Name: "lodash", Repository: &registry.Repository{URL: "git+https://github.com/lodash/lodash.git"}},
		"left-pad": {Name: "left-pad", Repository: &registry.Repository{URL: "github:left-pad/left-pad"}},
	}

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs }).
		Stub(&fetch.Fs, fs).
		Stub(&NewRunner, func(cfg *config.Config) supervisor.Runner {
			if gotCfg != nil {
				*gotCfg = cfg
			}

			return runner
		}).
		Stub(&NewLookup, func(*config.Config) registry.Lookup { return lookup })
	t.Cleanup(stubs.Reset)
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewCommand()
	cmd.Writer = buf
	err := cmd.Run(t.Context(), append([]string{"run"}, args...))

	return buf.String(), err
}

func TestRun_WritesResults(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "list.txt", []byte("lodash\nnpm\nleft-pad\nunknown\n"), 0o644))

	runner := &fakeRunner{}
	var cfg *config.Config
	setup(t, fs, runner, &cfg)

	out, err := runCmd(t, "-p", "list.txt", "-o", "out/results.json", "--ignore", "left-pad", "--timeout", "100ms")
	require.NoError(t, err)

	assert.Equal(t, "100ms", cfg.Timeout)
	assert.Contains(t, out, "4 packages: 1 passed, 0 failed, 3 skipped")

	b, err := afero.ReadFile(fs, "out/results.json")
	require.NoError(t, err)

	var res batch.Result
	require.NoError(t, json.Unmarshal(b, &res))
	assert.Equal(t, []string{"lodash", "npm", "left-pad", "unknown"}, res.Names())
	assert.Equal(t, "https://github.com/lodash/lodash.git", res[0].RepositoryURL)
	assert.EqualValues(t, "excluded", res[1].SkipReason)
	assert.EqualValues(t, "excluded", res[2].SkipReason)
	assert.EqualValues(t, "noRepository", res[3].SkipReason)

	require.Len(t, runner.commands, 3)
	assert.Equal(t, "git", runner.commands[0].Path)
	assert.Equal(t, "workspace", runner.commands[0].Cwd)
	assert.Nil(t, runner.commands[0].Env, "environment is inherited")
}

func TestRun_ConfigFileAndFlags(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "list.json", []byte(`["lodash"]`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "pkgcanary.yaml", []byte("packages: list.json\nbranch: main\nworkspace: from-file\n"), 0o644))

	runner := &fakeRunner{}
	var cfg *config.Config
	setup(t, fs, runner, &cfg)

	_, err := runCmd(t, "-c", "pkgcanary.yaml", "--workspace", "from-flag", "--snapshot", "snap.json")
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Workspace)
	assert.Equal(t, "main", cfg.Branch)
	assert.Contains(t, runner.commands[0].Args, "--branch")

	exists, err := afero.Exists(fs, "snap.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRun_MissingPackageList(t *testing.T) {
	fs := afero.NewMemMapFs()
	setup(t, fs, &fakeRunner{}, nil)

	_, err := runCmd(t, "-p", "missing.txt")
	require.ErrorIs(t, err, config.ErrReadPackages)
}

func TestRun_WorkspaceFailureIsFatal(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "list.txt", []byte("lodash\n"), 0o644))

	runner := &fakeRunner{}
	setup(t, afero.NewReadOnlyFs(base), runner, nil)

	_, err := runCmd(t, "-p", "list.txt")
	require.ErrorIs(t, err, batch.ErrPrepareWorkspace)
	assert.Empty(t, runner.commands)

	exists, err := afero.Exists(base, "results.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_InvalidConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	setup(t, fs, &fakeRunner{}, nil)

	_, err := runCmd(t, "--registry", "not a url")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
