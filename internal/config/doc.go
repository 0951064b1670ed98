// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config holds the run configuration and the package list loader.
//
// A configuration file is YAML unless its name ends in ".hcl". Every field is optional;
// values that are not set keep the defaults returned by Default.
//
//	packages: packages.txt
//	workspace: workspace
//	output: results.json
//	timeout: 5m
//	ignore: [npm, pm2]
//	test:
//	  command: npm
//	  args: [test]
//
// The same file in HCL:
//
//	packages = "packages.txt"
//	timeout  = "5m"
//	test {
//	  command = "npm"
//	  args    = ["test"]
//	}
package config
