// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/opencontainers/go-digest"
)

// readerBufferSize is a sequential read buffer for compressed input.
const readerBufferSize = 64 * 1024

// Archive is a fully decoded tar+gzip dump. It is immutable once built:
// accessors return copies, so callers can not change shared entry content.
type Archive struct {
	// entries maps normalized path to last decoded entry for that path.
	entries map[string]*Entry
	// digest is canonical digest of compressed input stream.
	digest digest.Digest
	// size is total file content size in bytes.
	size int64
}

// OpenArchive opens a dump file by path and decodes it in one pass.
func OpenArchive(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadArchive(f)
}

// ReadArchive decodes gzip-compressed tar stream into Archive.
// On any error no Archive is returned.
func ReadArchive(r io.Reader) (*Archive, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	digester := digest.Canonical.Digester()
	src := io.TeeReader(bufio.NewReaderSize(r, readerBufferSize), digester.Hash())

	a := &Archive{entries: make(map[string]*Entry, 256)}
	err := ScanArchive(src, func(entry Entry) error {
		if prev, exists := a.entries[entry.Path]; exists {
			a.size -= prev.Size()
		}

		e := entry
		a.entries[entry.Path] = &e
		a.size += e.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Hash bytes past the gzip stream too, so digest covers the whole input.
	if _, err := io.Copy(io.Discard, src); err != nil {
		return nil, fmt.Errorf("read archive tail: %w", err)
	}

	a.digest = digester.Digest()
	return a, nil
}

// Len returns number of distinct entries.
func (a *Archive) Len() int {
	if a == nil {
		return 0
	}

	return len(a.entries)
}

// Size returns total file content size in bytes.
func (a *Archive) Size() int64 {
	if a == nil {
		return 0
	}

	return a.size
}

// Digest returns digest of compressed input stream.
func (a *Archive) Digest() digest.Digest {
	if a == nil {
		return ""
	}

	return a.digest
}

// Paths returns sorted normalized entry paths.
func (a *Archive) Paths() []string {
	if a == nil {
		return nil
	}

	out := make([]string, 0, len(a.entries))
	for p := range a.entries {
		out = append(out, p)
	}

	sort.Strings(out)
	return out
}

// Entries returns copies of all entries sorted by path.
func (a *Archive) Entries() []Entry {
	if a == nil {
		return nil
	}

	out := make([]Entry, 0, len(a.entries))
	for _, p := range a.Paths() {
		out = append(out, cloneEntry(a.entries[p]))
	}

	return out
}

// Lookup returns a copy of entry by path. Path is normalized before lookup.
func (a *Archive) Lookup(name string) (Entry, bool) {
	e := a.lookup(name)
	if e == nil {
		return Entry{}, false
	}

	return cloneEntry(e), true
}

// Subtree returns copies of entries equal to prefix or below it, sorted by path.
// The empty prefix selects the whole archive.
func (a *Archive) Subtree(prefix string) []Entry {
	if a == nil {
		return nil
	}

	prefix = NormalizePath(prefix)
	var out []Entry
	for _, p := range a.Paths() {
		if isUnderPrefix(p, prefix) {
			out = append(out, cloneEntry(a.entries[p]))
		}
	}

	return out
}

// lookup resolves shared entry pointer by normalized path; callers must not mutate it.
func (a *Archive) lookup(name string) *Entry {
	if a == nil {
		return nil
	}

	return a.entries[NormalizePath(name)]
}

// subtree returns shared entry pointers under prefix sorted by path.
func (a *Archive) subtree(prefix string) []*Entry {
	var out []*Entry
	for p, e := range a.entries {
		if isUnderPrefix(p, prefix) {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// String returns short archive summary.
func (a *Archive) String() string {
	if a == nil {
		return "<nil archive>"
	}

	return fmt.Sprintf("archive %s: %d entries, %d bytes", a.digest, len(a.entries), a.size)
}

// cloneEntry returns entry copy with its own content buffer.
func cloneEntry(e *Entry) Entry {
	out := *e
	if e.Content != nil {
		out.Content = bytes.Clone(e.Content)
	}

	return out
}
