// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fetch loads the two inputs of a run, the package list and the run configuration.
// Either may be a local path or a go-getter URL whose last "//" segment names the file,
// for example git::https://github.com/org/lists//nightly/packages.txt?ref=main.
// See https://github.com/hashicorp/go-getter for the URL syntax.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/spf13/afero"
)

// ErrFetch is returned when a package list or configuration cannot be loaded.
var ErrFetch = errors.New("failed to load input")

// Fs is used for local reads. Tests replace it with an in-memory filesystem.
var Fs afero.Fs = afero.NewOsFs()

// Get returns the content of the package list or configuration at src.
// An existing local file is read from Fs; anything else is downloaded with go-getter.
func Get(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: no location given", ErrFetch)
	}

	if ok, _ := afero.Exists(Fs, src); ok {
		b, err := afero.ReadFile(Fs, src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFetch, src, err)
		}

		return b, nil
	}

	return download(ctx, src)
}

func download(ctx context.Context, src string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pkgcanary-input-*")
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	pwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	req, name, err := newRequest(src, filepath.Join(tmpDir, "src"), pwd)
	if err != nil {
		return nil, err
	}

	client := &getter.Client{DisableSymlinks: true}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: downloading %s: %w", ErrFetch, req.Src, err)
	}

	b, err := os.ReadFile(filepath.Join(res.Dst, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found in %s: %w", ErrFetch, name, req.Src, err)
	}

	return b, nil
}

// newRequest builds a directory download for the location holding src and returns the file name to read from it.
// Most getters cannot fetch a single file, see https://github.com/hashicorp/go-getter/issues/98.
func newRequest(src, dst, pwd string) (*getter.Request, string, error) {
	req := &getter.Request{
		Src:     src,
		Dst:     dst,
		Pwd:     pwd,
		GetMode: getter.ModeDir,
	}

	local, err := getter.Detect(req, &getter.FileGetter{})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrFetch, src, err)
	}

	if local {
		req.Src = filepath.Dir(src)
		return req, filepath.Base(src), nil
	}

	dirURL, name := SplitFileName(src)
	if name == "" {
		return nil, "", fmt.Errorf("%w: %s does not name a file, add it after a // separator", ErrFetch, src)
	}

	req.Src = dirURL

	return req, name, nil
}

const subdirSeparator = "//"

// SplitFileName splits a go-getter URL at its last "//" into the URL of the directory holding the file and the file name.
// A query string stays on the directory URL. Both results are empty when src has no subdirectory or ends in a directory.
func SplitFileName(src string) (dirURL, fileName string) {
	// The first separator belongs to the scheme.
	if strings.Count(src, subdirSeparator) < 2 {
		return "", ""
	}

	i := strings.LastIndex(src, subdirSeparator)
	base, sub := src[:i], src[i+len(subdirSeparator):]
	sub, query, _ := strings.Cut(sub, "?")

	dir, file := path.Split(sub)
	if file == "" || file == "." || file == ".." {
		return "", ""
	}

	dirURL = base
	if dir = strings.TrimSuffix(dir, "/"); dir != "" {
		dirURL += subdirSeparator + dir
	}

	if query != "" {
		dirURL += "?" + query
	}

	return dirURL, file
}
