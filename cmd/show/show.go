// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show contains the show command, which displays a saved results file.
package show

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/pkgcanary/internal/batch"
	"github.com/matt-FFFFFF/pkgcanary/internal/ctxlog"
	"github.com/matt-FFFFFF/pkgcanary/internal/report"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	fileArg  = "file"
	jsonFlag = "json"
)

var (
	// ErrNoFile is returned when no results file is given.
	ErrNoFile = errors.New("no results file specified")
	// ErrWriteResults is returned when the results cannot be written.
	ErrWriteResults = errors.New("failed to write results")
)

// FsFactory returns the filesystem results files are read from.
var FsFactory = afero.NewOsFs

// NewCommand returns the show command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show a saved results file",
		Description: "Show previously saved results as a table, or as formatted JSON with --json.",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      fileArg,
				UsageText: "RESULTSFILE",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  jsonFlag,
				Usage: "Print the results as formatted JSON",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg(fileArg)
	if path == "" {
		return ErrNoFile
	}

	res, err := batch.NewJSONFileStore(FsFactory(), path).Load(ctx)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer

	if cmd.Bool(jsonFlag) {
		return writeJSON(w, res)
	}

	rw := report.New(w)
	rw.Table(res)
	rw.Summary(res)

	return nil
}

func writeJSON(w io.Writer, res batch.Result) error {
	// colorjson only formats generic values.
	raw, err := json.Marshal(res)
	if err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	f := colorjson.NewFormatter()
	f.Indent = 2
	f.DisabledColor = !ctxlog.ColourEnabled(w)

	b, err := f.Marshal(v)
	if err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	if _, err := fmt.Fprintln(w, string(b)); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}
