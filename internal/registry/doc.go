// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package registry looks up package metadata in an npm-compatible registry and
// normalises the repository field into a URL that git can clone.
package registry
