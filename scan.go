// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// ScanArchive decodes gzip-compressed tar stream and calls fn for every entry
// in stream order. It is a single forward pass: to scan again, reopen the source.
// Returning an error from fn stops the scan and returns that error unchanged.
func ScanArchive(r io.Reader, fn func(entry Entry) error) error {
	if r == nil {
		return ErrNilReader
	}

	zr, err := gzip.NewReader(r)
	if err != nil {
		return classifyDecodeError("", err)
	}
	defer func() { _ = zr.Close() }()

	tr := tar.NewReader(zr)
	current := ""
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		// Insecure names are still returned with header; extraction checks them separately.
		if err != nil && !(hdr != nil && errors.Is(err, tar.ErrInsecurePath)) {
			return classifyDecodeError(current, err)
		}

		current = hdr.Name
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		entry, ok, err := decodeEntry(hdr, tr)
		if err != nil {
			return classifyDecodeError(current, err)
		}
		if !ok {
			continue
		}

		if err := fn(entry); err != nil {
			return err
		}
	}

	// Drain compressed trailer so gzip CRC and size of every member are verified.
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return classifyDecodeError("", err)
	}

	return nil
}

// decodeEntry converts one tar header and its payload into Entry.
// The bool result is false for records that map to no path (archive root).
func decodeEntry(hdr *tar.Header, tr io.Reader) (Entry, bool, error) {
	name := NormalizePath(hdr.Name)
	isDir := hdr.Typeflag == tar.TypeDir || strings.HasSuffix(hdr.Name, "/")

	entry := Entry{
		Path:    name,
		Mode:    fs.FileMode(hdr.Mode).Perm(), //nolint:gosec // tar mode bits are masked to permissions
		ModTime: hdr.ModTime,
	}

	if isDir {
		entry.Kind = EntryDirectory
		return entry, name != "", nil
	}

	entry.Kind = EntryFile
	switch hdr.Typeflag {
	case tar.TypeSymlink, tar.TypeLink:
		entry.Linkname = hdr.Linkname
	}

	content, err := io.ReadAll(tr)
	if err != nil {
		return Entry{}, false, err
	}
	if int64(len(content)) != hdr.Size && hdr.Typeflag != tar.TypeSymlink && hdr.Typeflag != tar.TypeLink {
		return Entry{}, false, io.ErrUnexpectedEOF
	}
	if content == nil {
		content = []byte{}
	}

	entry.Content = content
	return entry, name != "", nil
}

// classifyDecodeError maps gzip/tar decoder errors to archive error taxonomy.
func classifyDecodeError(entryPath string, err error) error {
	var corrupt flate.CorruptInputError

	switch {
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		err = fmt.Errorf("%w: %w", ErrArchiveTruncated, err)
	case errors.Is(err, gzip.ErrHeader), errors.Is(err, gzip.ErrChecksum),
		errors.Is(err, tar.ErrHeader), errors.As(err, &corrupt):
		err = fmt.Errorf("%w: %w", ErrArchiveFormat, err)
	default:
		return fmt.Errorf("read archive: %w", err)
	}

	return &ArchiveError{Path: entryPath, Err: err}
}
