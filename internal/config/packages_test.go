// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/matt-FFFFFF/pkgcanary/internal/fetch"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackages(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
		wantErr error
	}{
		{
			name:    "text with comments and blanks",
			file:    "packages.txt",
			content: "# top packages\nlodash\n\n  express  \r\n@babel/core\n",
			want:    []string{"lodash", "express", "@babel/core"},
		},
		{
			name:    "json array",
			file:    "packages.json",
			content: `["lodash", " chalk "]`,
			want:    []string{"lodash", "chalk"},
		},
		{
			name:    "yaml list",
			file:    "packages.yml",
			content: "- lodash\n- chalk\n",
			want:    []string{"lodash", "chalk"},
		},
		{
			name:    "empty text file",
			file:    "packages.txt",
			content: "\n# nothing\n",
			want:    nil,
		},
		{
			name:    "duplicate",
			file:    "packages.txt",
			content: "lodash\nchalk\nlodash\n",
			wantErr: ErrDuplicatePackageName,
		},
		{
			name:    "escapes workspace",
			file:    "packages.txt",
			content: "../etc\n",
			wantErr: ErrInvalidPackageName,
		},
		{
			name:    "absolute",
			file:    "packages.json",
			content: `["/tmp/x"]`,
			wantErr: ErrInvalidPackageName,
		},
		{
			name:    "empty json entry",
			file:    "packages.json",
			content: `["lodash", ""]`,
			wantErr: ErrInvalidPackageName,
		},
		{
			name:    "malformed json",
			file:    "packages.json",
			content: `{"name": "lodash"}`,
			wantErr: ErrReadPackages,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePackages(tt.file, []byte(tt.content))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrReadPackages)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadPackages(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "packages.txt", []byte("a\nb\n"), 0o644))

	stubs := gostub.Stub(&fetch.Fs, fs)
	defer stubs.Reset()

	got, err := ReadPackages(t.Context(), "packages.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = ReadPackages(t.Context(), "")
	require.ErrorIs(t, err, ErrReadPackages)
}
