// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"fmt"
	"path"
	"strings"
)

// NormalizePath converts an archive or image path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, `/`)
	p = strings.TrimPrefix(p, "./")
	return p
}

// normalizeImagePath validates image-relative path and returns its canonical form.
// Unlike NormalizePath it rejects absolute, drive-rooted and parent-escaping inputs.
func normalizeImagePath(raw string) (string, error) {
	normalized, err := normalizeRelativePath(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidImagePath, raw)
	}

	return normalized, nil
}

// normalizeRelativePath normalizes a relative path and rejects absolute/traversal inputs.
func normalizeRelativePath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if hasWindowsAbsDrivePrefix(raw) {
		return "", ErrInvalidExtractPath
	}

	parts := strings.Split(raw, `/`)
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(cleanParts, `/`), nil
}

// hasWindowsAbsDrivePrefix reports whether path starts with drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(p string) bool {
	if len(p) < 3 {
		return false
	}

	return isASCIIAlpha(p[0]) && p[1] == ':' && p[2] == '/'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// isUnderPrefix reports whether normalized path equals prefix or lies inside prefixed directory.
// Empty prefix matches everything.
func isUnderPrefix(p string, prefix string) bool {
	if prefix == "" {
		return true
	}

	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// rebasePath moves p from under srcPrefix to under dstPrefix.
func rebasePath(p string, srcPrefix string, dstPrefix string) string {
	rel := p
	if srcPrefix != "" {
		rel = strings.TrimPrefix(strings.TrimPrefix(p, srcPrefix), "/")
	}

	if rel == "" {
		return dstPrefix
	}

	return path.Join(dstPrefix, rel)
}
