// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config contains the config command, which prints the effective configuration.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/pkgcanary/internal/config"
	"github.com/urfave/cli/v3"
)

const configFlag = "config"

// ErrWriteConfig is returned when the configuration cannot be written.
var ErrWriteConfig = errors.New("failed to write configuration")

// NewCommand returns the config command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Description: `Print the configuration that the run command would use.
Without --config the defaults are printed, which is a useful starting point for a configuration file.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      configFlag,
				Aliases:   []string{"c"},
				Usage:     "Configuration file (YAML, or HCL with a .hcl extension)",
				TakesFile: true,
				OnlyOnce:  true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	if src := cmd.String(configFlag); src != "" {
		var err error
		if cfg, err = config.Load(ctx, src); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := cfg.YAML()
	if err != nil {
		return errors.Join(ErrWriteConfig, err)
	}

	if _, err := fmt.Fprint(cmd.Root().Writer, string(b)); err != nil {
		return errors.Join(ErrWriteConfig, err)
	}

	return nil
}
