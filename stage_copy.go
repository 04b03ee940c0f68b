// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/spf13/afero"
)

// copyStage places archive entries into image according to copy rules.
func (a *Assembler) copyStage(run *stageRun, archive *Archive, rules []CopyRule) {
	for _, rule := range rules {
		if err := a.copyRule(run, archive, rule); err != nil {
			run.fail(err)
		}
	}
}

// copyRule copies one file or one subtree.
func (a *Assembler) copyRule(run *stageRun, archive *Archive, rule CopyRule) error {
	if e := archive.lookup(rule.Source); e != nil && !e.IsDir() {
		if err := a.writeEntry(run, e, rule.Destination); err != nil {
			return run.stepError(rule.Source, err)
		}

		return nil
	}

	matcher, err := newExcludeMatcher(rule.Exclude)
	if err != nil {
		return run.stepError(rule.Source, err)
	}

	members := archive.subtree(rule.Source)
	selected := members[:0:0]
	for _, e := range members {
		rel := rebasePath(e.Path, rule.Source, "")
		if rel != "" && matcher.Excluded(rel, e.IsDir()) {
			continue
		}

		selected = append(selected, e)
	}

	if len(selected) == 0 {
		return run.stepError(rule.Source, fmt.Errorf("%w: %s", ErrSourceMissing, rule.Source))
	}

	a.log.Debug("copy subtree",
		slog.String("source", rule.Source),
		slog.String("destination", rule.Destination),
		slog.Int("entries", len(selected)))

	for _, e := range selected {
		dst := rebasePath(e.Path, rule.Source, rule.Destination)
		if e.IsDir() {
			if err := a.image.MkdirAll(dst, a.opts.DirMode); err != nil {
				return run.stepError(e.Path, fmt.Errorf("create directory %s: %w", dst, err))
			}

			run.record(Change{Action: ChangeCreateDir, Path: dst, Source: e.Path})
			continue
		}

		if err := a.writeEntry(run, e, dst); err != nil {
			return run.stepError(e.Path, err)
		}
	}

	return nil
}

// writeEntry writes one file entry to image path creating parent directories.
func (a *Assembler) writeEntry(run *stageRun, e *Entry, dst string) error {
	if dir := path.Dir(dst); dir != "." {
		if err := a.image.MkdirAll(dir, a.opts.DirMode); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	mode := e.Mode.Perm()
	if mode == 0 {
		mode = a.opts.FileMode
	}
	// Image files are patched and overwritten on rebuilds; keep them owner-writable.
	mode |= 0o200

	if err := afero.WriteFile(a.image, dst, e.Content, mode); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}

	// WriteFile keeps permissions of an existing file; copies must carry archive mode.
	if err := a.image.Chmod(dst, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}

	run.record(Change{Action: ChangeWrite, Path: dst, Source: e.Path, Size: e.Size()})
	return nil
}

