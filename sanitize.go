// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxExtractNameLen is NAME_MAX of ext4 and most Linux filesystems.
const maxExtractNameLen = 255

// extractNamer assigns on-disk relative paths to dump entries.
// Directory renames propagate to every entry below them, so a subtree
// stays together even when its root name had to change.
type extractNamer struct {
	// dirs maps archive directory path to assigned on-disk path.
	dirs map[string]string
	// taken holds every assigned on-disk path.
	taken map[string]struct{}
}

// newExtractNamer creates namer for one Extract call.
func newExtractNamer(capacity int) *extractNamer {
	return &extractNamer{
		dirs:  make(map[string]string, capacity),
		taken: make(map[string]struct{}, capacity),
	}
}

// assign returns unique on-disk slash path for entry.
func (n *extractNamer) assign(e *Entry) string {
	if e.IsDir() {
		return n.dir(e.Path)
	}

	return n.claim(n.dir(path.Dir(e.Path)), path.Base(e.Path))
}

// dir resolves assigned path of archive directory, claiming parents first.
func (n *extractNamer) dir(archiveDir string) string {
	if archiveDir == "." || archiveDir == "" {
		return ""
	}
	if assigned, ok := n.dirs[archiveDir]; ok {
		return assigned
	}

	assigned := n.claim(n.dir(path.Dir(archiveDir)), path.Base(archiveDir))
	n.dirs[archiveDir] = assigned
	return assigned
}

// claim cleans name, joins it under parent and suffixes "~N" until unused.
func (n *extractNamer) claim(parent string, name string) string {
	name = cleanExtractName(name)

	candidate := path.Join(parent, name)
	for i := 2; ; i++ {
		if _, used := n.taken[candidate]; !used {
			break
		}

		candidate = path.Join(parent, suffixExtractName(name, i))
	}

	n.taken[candidate] = struct{}{}
	return candidate
}

// cleanExtractName replaces runes that break shells or terminals with "_"
// and shortens names above maxExtractNameLen.
func cleanExtractName(name string) string {
	if name == "" || name == "." || name == ".." {
		return "_"
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\\', r == '/', r == '\uFFFD':
			return '_'
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return '_'
		default:
			return r
		}
	}, name)

	return fitExtractName(cleaned, maxExtractNameLen)
}

// suffixExtractName inserts "~N" before the first extension: libfoo.so.2 -> libfoo~2.so.2.
func suffixExtractName(name string, n int) string {
	stem, ext := name, ""
	if dot := strings.IndexByte(name[1:], '.'); dot >= 0 {
		stem, ext = name[:dot+1], name[dot+1:]
	}

	suffix := "~" + strconv.Itoa(n)
	return fitExtractName(stem, maxExtractNameLen-len(suffix)-len(ext)) + suffix + ext
}

// fitExtractName trims name to limit bytes, ending with a hash of the full name.
func fitExtractName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	tag := fmt.Sprintf("~%08x", h.Sum32())

	keep := max(limit-len(tag), 0)
	for keep > 0 && !utf8.RuneStart(name[keep]) {
		keep--
	}

	return name[:keep] + tag
}
