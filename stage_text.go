// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// textStage rewrites text files with ordered cumulative substitutions.
func (a *Assembler) textStage(run *stageRun, patches []TextPatch) {
	for _, patch := range patches {
		if err := a.patchText(run, patch); err != nil {
			run.fail(err)
		}
	}
}

// patchText applies one text patch to its image file.
func (a *Assembler) patchText(run *stageRun, patch TextPatch) error {
	info, err := a.image.Stat(patch.Path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return run.stepError(patch.Path, fmt.Errorf("%w: %s", ErrTargetMissing, patch.Path))
	}
	if err != nil {
		return run.stepError(patch.Path, fmt.Errorf("stat: %w", err))
	}

	data, err := afero.ReadFile(a.image, patch.Path)
	if err != nil {
		return run.stepError(patch.Path, fmt.Errorf("read: %w", err))
	}

	content, replaced, err := ApplySubstitutions(string(data), patch.Substitutions)
	if err != nil {
		return run.stepError(patch.Path, err)
	}

	if err := afero.WriteFile(a.image, patch.Path, []byte(content), fileMode(info, a.opts.FileMode)); err != nil {
		return run.stepError(patch.Path, fmt.Errorf("write: %w", err))
	}

	a.log.Debug("text patched",
		slog.String("path", patch.Path),
		slog.Int("replacements", replaced))

	run.record(Change{
		Action:       ChangeRewrite,
		Path:         patch.Path,
		Size:         int64(len(content)),
		Replacements: replaced,
	})

	return nil
}

// ApplySubstitutions applies substitutions in order, each one over the
// result of the previous ones, and returns new content with the number of
// replaced matches. Later patterns may match text inserted by earlier ones,
// so applying the same list twice is not idempotent in general.
func ApplySubstitutions(content string, subs []Substitution) (string, int, error) {
	total := 0
	for i, sub := range subs {
		if sub.Search == "" {
			return "", 0, fmt.Errorf("%w: substitution %d has empty search", ErrInvalidPlan, i)
		}

		if !sub.Regexp {
			total += strings.Count(content, sub.Search)
			content = strings.ReplaceAll(content, sub.Search, sub.Replace)
			continue
		}

		re, err := regexp.Compile(sub.Search)
		if err != nil {
			return "", 0, fmt.Errorf("%w: substitution %d: %w", ErrInvalidPlan, i, err)
		}

		total += len(re.FindAllStringIndex(content, -1))
		content = re.ReplaceAllLiteralString(content, sub.Replace)
	}

	return content, total, nil
}

// fileMode returns permission bits of existing image file.
func fileMode(info fs.FileInfo, fallback fs.FileMode) fs.FileMode {
	if info == nil || info.Mode().Perm() == 0 {
		return fallback
	}

	return info.Mode().Perm()
}
