// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/matt-FFFFFF/pkgcanary/internal/fetch"
	"github.com/matt-FFFFFF/pkgcanary/internal/pipeline"
	pkgerrors "github.com/pkg/errors"
)

const hclExt = ".hcl"

var (
	// ErrLoadConfig is returned when a configuration file cannot be read or decoded.
	ErrLoadConfig = errors.New("failed to load configuration")
	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DefaultIgnore is the list of packages that are never tested.
// These packages either have no runnable test suite or need external services.
var DefaultIgnore = []string{
	"npm",
	"pm2",
	"webpack",
	"yo",
	"gulp-sourcemaps",
	"karma",
	"redis",
	"mysql",
	"forever",
	"mongoose",
}

// Step is an external command with its leading arguments.
type Step struct {
	Command string   `yaml:"command" hcl:"command"`
	Args    []string `yaml:"args,omitempty" hcl:"args,optional"`
}

// StepCommand converts the step for use by the pipeline.
func (s *Step) StepCommand() pipeline.StepCommand {
	if s == nil {
		return pipeline.StepCommand{}
	}

	return pipeline.StepCommand{Command: s.Command, Args: slices.Clone(s.Args)}
}

// Config is the run configuration.
type Config struct {
	Packages      string   `yaml:"packages,omitempty" hcl:"packages,optional"`
	Workspace     string   `yaml:"workspace,omitempty" hcl:"workspace,optional"`
	Output        string   `yaml:"output,omitempty" hcl:"output,optional"`
	Snapshot      string   `yaml:"snapshot,omitempty" hcl:"snapshot,optional"`
	MetricsFile   string   `yaml:"metrics_file,omitempty" hcl:"metrics_file,optional"`
	Registry      string   `yaml:"registry,omitempty" hcl:"registry,optional"`
	Timeout       string   `yaml:"timeout,omitempty" hcl:"timeout,optional"`
	KillGrace     string   `yaml:"kill_grace,omitempty" hcl:"kill_grace,optional"`
	LookupTimeout string   `yaml:"lookup_timeout,omitempty" hcl:"lookup_timeout,optional"`
	Branch        string   `yaml:"branch,omitempty" hcl:"branch,optional"`
	Ignore        []string `yaml:"ignore,omitempty" hcl:"ignore,optional"`
	Clone         *Step    `yaml:"clone,omitempty" hcl:"clone,block"`
	Install       *Step    `yaml:"install,omitempty" hcl:"install,block"`
	Test          *Step    `yaml:"test,omitempty" hcl:"test,block"`

	// Source is where the configuration was loaded from, empty for the defaults.
	Source string `yaml:"-"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Packages:      "packages.txt",
		Workspace:     "workspace",
		Output:        "results.json",
		Registry:      "https://registry.npmjs.org",
		Timeout:       "5m",
		KillGrace:     "10s",
		LookupTimeout: "30s",
		Ignore:        slices.Clone(DefaultIgnore),
		Clone:         &Step{Command: "git", Args: []string{"clone", "--depth", "1", "--single-branch"}},
		Install:       &Step{Command: "npm", Args: []string{"install"}},
		Test:          &Step{Command: "npm", Args: []string{"test"}},
	}
}

// Load reads the configuration at src, a local path or go-getter URL, over the defaults.
func Load(ctx context.Context, src string) (*Config, error) {
	b, err := fetch.Get(ctx, src)
	if err != nil {
		return nil, pkgerrors.WithStack(errors.Join(ErrLoadConfig, err))
	}

	cfg, err := Parse(src, b)
	if err != nil {
		return nil, pkgerrors.WithStack(err)
	}

	cfg.Source = src

	return cfg, nil
}

// Parse decodes a configuration file over the defaults. The format is chosen from the file name.
func Parse(name string, b []byte) (*Config, error) {
	var file Config

	if fileExt(name) == hclExt {
		if err := hclsimple.Decode("config"+hclExt, b, nil, &file); err != nil {
			return nil, errors.Join(ErrLoadConfig, err)
		}
	} else if err := yaml.UnmarshalWithOptions(b, &file, yaml.Strict()); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	cfg := Default()
	cfg.merge(&file)

	return cfg, nil
}

func (c *Config) merge(o *Config) {
	for _, f := range []struct{ dst, src *string }{
		{&c.Packages, &o.Packages},
		{&c.Workspace, &o.Workspace},
		{&c.Output, &o.Output},
		{&c.Snapshot, &o.Snapshot},
		{&c.MetricsFile, &o.MetricsFile},
		{&c.Registry, &o.Registry},
		{&c.Timeout, &o.Timeout},
		{&c.KillGrace, &o.KillGrace},
		{&c.LookupTimeout, &o.LookupTimeout},
		{&c.Branch, &o.Branch},
	} {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}

	if o.Ignore != nil {
		c.Ignore = slices.Clone(o.Ignore)
	}

	for _, s := range []struct{ dst, src **Step }{
		{&c.Clone, &o.Clone},
		{&c.Install, &o.Install},
		{&c.Test, &o.Test},
	} {
		if *s.src != nil {
			*s.dst = *s.src
		}
	}
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var result error

	for _, f := range []struct{ name, value string }{
		{"packages", c.Packages},
		{"workspace", c.Workspace},
		{"output", c.Output},
	} {
		if strings.TrimSpace(f.value) == "" {
			result = multierror.Append(result, fmt.Errorf("%s must not be empty", f.name))
		}
	}

	for _, f := range []struct{ name, value string }{
		{"timeout", c.Timeout},
		{"kill_grace", c.KillGrace},
		{"lookup_timeout", c.LookupTimeout},
	} {
		d, err := time.ParseDuration(f.value)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("%s: %w", f.name, err))
		case d <= 0:
			result = multierror.Append(result, fmt.Errorf("%s must be positive, got %s", f.name, f.value))
		}
	}

	for _, err := range c.workspaceErrors() {
		result = multierror.Append(result, err)
	}

	if u, err := url.Parse(c.Registry); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		result = multierror.Append(result, fmt.Errorf("registry must be an absolute http(s) URL, got %q", c.Registry))
	}

	for _, s := range []struct {
		name string
		step *Step
	}{
		{"clone", c.Clone},
		{"install", c.Install},
		{"test", c.Test},
	} {
		if s.step == nil || strings.TrimSpace(s.step.Command) == "" {
			result = multierror.Append(result, fmt.Errorf("%s.command must not be empty", s.name))
		}
	}

	if result != nil {
		return errors.Join(ErrInvalidConfig, result)
	}

	return nil
}

// TimeoutDuration is the per-command timeout. Call Validate first.
func (c *Config) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// KillGraceDuration is the wait between interrupt and kill. Call Validate first.
func (c *Config) KillGraceDuration() time.Duration {
	return mustDuration(c.KillGrace)
}

// LookupTimeoutDuration is the HTTP timeout for metadata lookups. Call Validate first.
func (c *Config) LookupTimeoutDuration() time.Duration {
	return mustDuration(c.LookupTimeout)
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// workspaceErrors rejects workspaces whose removal at the start of a run would delete
// anything other than previous checkouts.
func (c *Config) workspaceErrors() []error {
	ws := strings.TrimSpace(c.Workspace)
	if ws == "" {
		return nil
	}

	abs, err := filepath.Abs(ws)
	if err != nil {
		return []error{fmt.Errorf("workspace %q: %w", ws, err)}
	}

	var errs []error

	if abs == filepath.VolumeName(abs)+string(filepath.Separator) {
		errs = append(errs, fmt.Errorf("workspace %q is the filesystem root", ws))
	}

	for _, d := range []struct{ name, path string }{
		{"the current directory", mustGetwd()},
		{"the home directory", mustHomeDir()},
	} {
		if d.path != "" && within(abs, d.path) {
			errs = append(errs, fmt.Errorf("workspace %q contains %s", ws, d.name))
		}
	}

	for _, f := range []struct{ name, path string }{
		{"packages", c.Packages},
		{"output", c.Output},
		{"snapshot", c.Snapshot},
		{"metrics_file", c.MetricsFile},
		{"config", c.Source},
	} {
		if !isLocalPath(f.path) {
			continue
		}

		p, err := filepath.Abs(f.path)
		if err == nil && within(abs, p) {
			errs = append(errs, fmt.Errorf("workspace %q contains the %s file %q", ws, f.name, f.path))
		}
	}

	return errs
}

// within reports whether path is dir or below it. Both must be absolute.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// isLocalPath reports whether p is a non-empty filesystem path rather than a go-getter URL.
func isLocalPath(p string) bool {
	return strings.TrimSpace(p) != "" && !strings.Contains(p, "::") && !strings.Contains(p, "://")
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	return wd
}

func mustHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return home
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}

	return d
}

func stripQuery(name string) string {
	name, _, _ = strings.Cut(name, "?")
	return name
}

func fileExt(name string) string {
	return strings.ToLower(path.Ext(stripQuery(name)))
}
