// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"run", "show", "config"} {
		assert.NotNil(t, root.Command(name), name)
	}
}

func TestRootCmd_LogFormat(t *testing.T) {
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.Writer = buf

	require.NoError(t, root.Run(t.Context(), []string{"pkgcanary", "--log-format", "json", "config"}))
	assert.Contains(t, buf.String(), "workspace: workspace")

	root = NewRootCmd()
	root.Writer = &bytes.Buffer{}
	root.ErrWriter = &bytes.Buffer{}
	require.Error(t, root.Run(t.Context(), []string{"pkgcanary", "--log-format", "xml", "config"}))
}
