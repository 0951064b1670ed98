// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/pkgcanary/internal/fetch"
	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrReadPackages is returned when the package list cannot be read or is invalid.
	ErrReadPackages = errors.New("failed to read package list")
	// ErrInvalidPackageName is returned for names that are empty or would escape the workspace.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrDuplicatePackageName is returned when the list names a package twice.
	ErrDuplicatePackageName = errors.New("duplicate package name")
)

const commentPrefix = "#"

// ReadPackages reads the ordered package list at src, a local path or go-getter URL.
func ReadPackages(ctx context.Context, src string) ([]string, error) {
	b, err := fetch.Get(ctx, src)
	if err != nil {
		return nil, pkgerrors.WithStack(errors.Join(ErrReadPackages, err))
	}

	names, err := ParsePackages(src, b)
	if err != nil {
		return nil, pkgerrors.WithStack(err)
	}

	return names, nil
}

// ParsePackages parses a package list. JSON and YAML files hold an array of strings,
// any other file has one name per line with blank lines and # comments ignored.
func ParsePackages(name string, b []byte) ([]string, error) {
	var (
		names []string
		err   error
	)

	switch fileExt(name) {
	case ".json":
		err = json.Unmarshal(b, &names)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &names)
	default:
		names, err = parseLines(b)
	}

	if err != nil {
		return nil, errors.Join(ErrReadPackages, err)
	}

	if err := checkNames(names); err != nil {
		return nil, errors.Join(ErrReadPackages, err)
	}

	return names, nil
}

func parseLines(b []byte) ([]string, error) {
	var names []string

	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		names = append(names, line)
	}

	return names, sc.Err()
}

// checkNames trims every name in place and reports all invalid or repeated names.
func checkNames(names []string) error {
	var result error

	seen := make(map[string]struct{}, len(names))

	for i, n := range names {
		n = strings.TrimSpace(n)
		names[i] = n

		if err := validName(n); err != nil {
			result = multierror.Append(result, err)
			continue
		}

		if _, ok := seen[n]; ok {
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrDuplicatePackageName, n))
			continue
		}

		seen[n] = struct{}{}
	}

	return result
}

func validName(n string) error {
	switch {
	case n == "":
		return fmt.Errorf("%w: empty name", ErrInvalidPackageName)
	case n == "." || strings.Contains(n, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, n)
	case strings.HasPrefix(n, "/"), strings.ContainsAny(n, `\:`):
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, n)
	case strings.ContainsAny(n, " \t"):
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, n)
	}

	return nil
}
