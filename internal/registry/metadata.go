// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package registry

import (
	"encoding/json"
	"strings"
)

// Metadata is the subset of a registry package document that the harness needs.
type Metadata struct {
	Name       string      `json:"name"`
	Repository *Repository `json:"repository,omitempty"`
}

// Repository is the repository field of a package document.
// The registry serves it either as a bare string or as an object.
type Repository struct {
	Type      string `json:"type,omitempty"`
	URL       string `json:"url"`
	Directory string `json:"directory,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Repository{URL: s}
		return nil
	}

	type plain Repository

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err //nolint:wrapcheck
	}

	*r = Repository(p)

	return nil
}

// RepositoryURL returns the normalised clone URL, or "" when the package has no repository.
// Values that would be read as a command line option are treated as no repository.
func (m Metadata) RepositoryURL() string {
	if m.Repository == nil {
		return ""
	}

	u := NormalizeURL(m.Repository.URL)
	if strings.HasPrefix(u, "-") {
		return ""
	}

	return u
}

var shorthandHosts = map[string]string{
	"github":    "github.com",
	"gitlab":    "gitlab.com",
	"bitbucket": "bitbucket.org",
}

// NormalizeURL turns the many spellings found in package documents into an https clone URL.
// Values it does not recognise are returned trimmed but otherwise unchanged.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}

	u = strings.TrimPrefix(u, "git+")

	switch {
	case strings.HasPrefix(u, "git://"):
		return "https://" + strings.TrimPrefix(u, "git://")

	case strings.HasPrefix(u, "ssh://git@"):
		return "https://" + strings.TrimPrefix(u, "ssh://git@")

	case strings.HasPrefix(u, "git@"):
		host, path, ok := strings.Cut(strings.TrimPrefix(u, "git@"), ":")
		if !ok {
			return u
		}

		return "https://" + host + "/" + path

	case strings.Contains(u, "://"):
		return u
	}

	if prefix, rest, ok := strings.Cut(u, ":"); ok {
		if host, known := shorthandHosts[prefix]; known {
			return "https://" + host + "/" + rest
		}

		return u
	}

	// Bare "owner/repo" is GitHub shorthand.
	if strings.Count(u, "/") == 1 && !strings.HasPrefix(u, "/") && !strings.HasPrefix(u, ".") {
		return "https://github.com/" + u
	}

	return u
}
