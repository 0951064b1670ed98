// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/matt-FFFFFF/pkgcanary/internal/ctxlog"
)

const (
	// DefaultURL is the public npm registry.
	DefaultURL = "https://registry.npmjs.org"
	// DefaultTimeout bounds a single metadata request.
	DefaultTimeout = 30 * time.Second
	acceptHeader   = "application/json"
)

var (
	// ErrLookup is returned when package metadata could not be retrieved.
	ErrLookup = errors.New("registry lookup failed")
	// ErrUnexpectedStatus is returned when the registry answers with a status other than 200 or 404.
	ErrUnexpectedStatus = errors.New("unexpected registry response status")
)

// Lookup resolves a package name to its registry metadata.
type Lookup interface {
	Lookup(ctx context.Context, name string) (Metadata, error)
}

var _ Lookup = (*Client)(nil)

// Client fetches package documents over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.HTTP = c
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.HTTP.Timeout = d
		}
	}
}

// New returns a Client for the registry at baseURL, or DefaultURL when baseURL is empty.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = DefaultTimeout

	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lookup fetches the package document for name.
// A 404 is not an error: the package simply has no metadata, and so no repository.
func (c *Client) Lookup(ctx context.Context, name string) (Metadata, error) {
	endpoint := c.BaseURL + "/" + url.PathEscape(name)
	logger := ctxlog.Logger(ctx)
	logger.Debug("registry lookup", "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Metadata{}, errors.Join(ErrLookup, err)
	}

	req.Header.Set("Accept", acceptHeader)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Metadata{}, errors.Join(ErrLookup, err)
	}

	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		logger.Debug("package not found in registry", "package", name)
		return Metadata{Name: name}, nil
	default:
		return Metadata{}, errors.Join(ErrLookup, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status))
	}

	var md Metadata
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return Metadata{}, errors.Join(ErrLookup, err)
	}

	if md.Name == "" {
		md.Name = name
	}

	return md, nil
}
