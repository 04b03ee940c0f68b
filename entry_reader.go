// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"bytes"
	"fmt"
	"io"
)

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// OpenEntry opens named file entry for reading.
func (a *Archive) OpenEntry(name string) (io.ReadCloser, error) {
	if a == nil {
		return nil, ErrNilReader
	}

	e := a.lookup(name)
	if e == nil || e.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	return nopCloser{Reader: bytes.NewReader(e.Content)}, nil
}

// ReadEntry reads full content of the named file entry.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	rc, err := a.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}
