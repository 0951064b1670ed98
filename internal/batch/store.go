// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	// ErrWriteResults is returned when a results file cannot be written.
	ErrWriteResults = errors.New("failed to write results file")
	// ErrReadResults is returned when a results file cannot be read or decoded.
	ErrReadResults = errors.New("failed to read results file")
)

const resultsFileMode os.FileMode = 0o644

var _ Store = (*JSONFileStore)(nil)

// JSONFileStore writes a Result as an indented JSON array.
type JSONFileStore struct {
	Fs   afero.Fs
	Path string
}

// NewJSONFileStore returns a store writing to path on fs.
func NewJSONFileStore(fs afero.Fs, path string) *JSONFileStore {
	return &JSONFileStore{Fs: fs, Path: path}
}

// Save implements Store. The file is written to a temporary name first and then renamed into place.
func (s *JSONFileStore) Save(_ context.Context, result Result) error {
	if result == nil {
		result = Result{}
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	b = append(b, '\n')

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := s.Fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Join(ErrWriteResults, err)
		}
	}

	tmp := s.Path + ".tmp"
	if err := afero.WriteFile(s.Fs, tmp, b, resultsFileMode); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	if err := s.Fs.Rename(tmp, s.Path); err != nil {
		_ = s.Fs.Remove(tmp)
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}

// Load reads a results file written by Save.
func (s *JSONFileStore) Load(_ context.Context) (Result, error) {
	b, err := afero.ReadFile(s.Fs, s.Path)
	if err != nil {
		return nil, errors.Join(ErrReadResults, err)
	}

	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, errors.Join(ErrReadResults, err)
	}

	return res, nil
}
