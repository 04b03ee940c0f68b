// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CheckScaffold verifies that every listed image-relative file exists in image.
// All missing paths are reported, each wrapping ErrScaffoldMissing.
func CheckScaffold(image afero.Fs, paths []string) error {
	if image == nil {
		return fmt.Errorf("%w: image filesystem", ErrNilReader)
	}

	var errs []error
	for _, raw := range paths {
		p, err := normalizeImagePath(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		info, err := image.Stat(p)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			errs = append(errs, fmt.Errorf("%w: %s", ErrScaffoldMissing, p))
		case err != nil:
			errs = append(errs, fmt.Errorf("stat %s: %w", p, err))
		case info.IsDir():
			errs = append(errs, fmt.Errorf("%w: %s is a directory", ErrScaffoldMissing, p))
		}
	}

	return errors.Join(errs...)
}

// DetectDump looks for a known dump file in dir and returns its profile and full path.
// Profiles are probed in version order; the first present dump wins.
func DetectDump(dir string) (Profile, string, error) {
	for _, profile := range Profiles() {
		candidate := filepath.Join(dir, profile.DumpFile)
		info, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Profile{}, "", fmt.Errorf("stat dump %s: %w", candidate, err)
		}
		if info.IsDir() {
			continue
		}

		return profile, candidate, nil
	}

	return Profile{}, "", fmt.Errorf("%w: no known dump in %s", ErrUnknownVersion, dir)
}
