// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// binaryStage applies fixed-offset patch tables. Each target is opened once
// and closed before the next target starts.
func (a *Assembler) binaryStage(run *stageRun, targets []BinaryTarget) {
	for _, target := range targets {
		if err := a.patchBinary(run, target); err != nil {
			run.fail(err)
		}
	}
}

// patchBinary validates every patch of one target against file size, then
// overwrites bytes in listed order on the same handle. Invalid tables leave
// the file untouched.
func (a *Assembler) patchBinary(run *stageRun, target BinaryTarget) (err error) {
	targetPath, err := normalizeImagePath(target.Path)
	if err != nil {
		return run.stepError(target.Path, err)
	}

	if err := validateBytePatches(targetPath, target.Patches); err != nil {
		return run.stepError(targetPath, err)
	}

	f, err := a.image.OpenFile(targetPath, os.O_RDWR, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return run.stepError(targetPath, fmt.Errorf("%w: %s", ErrTargetMissing, targetPath))
	}
	if err != nil {
		return run.stepError(targetPath, fmt.Errorf("open: %w", err))
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = run.stepError(targetPath, fmt.Errorf("close: %w", closeErr))
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return run.stepError(targetPath, fmt.Errorf("stat: %w", err))
	}
	if info.IsDir() {
		return run.stepError(targetPath, fmt.Errorf("%w: %s is a directory", ErrTargetMissing, targetPath))
	}

	size := uint64(info.Size()) //nolint:gosec // file sizes are never negative
	for _, patch := range target.Patches {
		end := patch.Offset + uint64(len(patch.Bytes))
		if end < patch.Offset || end > size {
			return &StepError{
				Stage:     run.stage,
				Path:      targetPath,
				Offset:    patch.Offset,
				HasOffset: true,
				Err: fmt.Errorf("%w: %d bytes at 0x%X exceed file size %d",
					ErrOffsetOutOfRange, len(patch.Bytes), patch.Offset, size),
			}
		}
	}

	for _, patch := range target.Patches {
		if err := overwriteAt(f, patch); err != nil {
			return &StepError{Stage: run.stage, Path: targetPath, Offset: patch.Offset, HasOffset: true, Err: err}
		}

		run.record(Change{
			Action: ChangePatch,
			Path:   targetPath,
			Offset: patch.Offset,
			Size:   int64(len(patch.Bytes)),
		})
	}

	a.log.Debug("binary patched",
		slog.String("path", targetPath),
		slog.Int("patches", len(target.Patches)))

	return nil
}

// overwriteAt seeks to patch offset and writes replacement bytes in place.
func overwriteAt(w io.WriteSeeker, patch BytePatch) error {
	if _, err := w.Seek(int64(patch.Offset), io.SeekStart); err != nil { //nolint:gosec // bounded by file size check
		return fmt.Errorf("seek: %w", err)
	}

	n, err := w.Write(patch.Bytes)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if n != len(patch.Bytes) {
		return io.ErrShortWrite
	}

	return nil
}
