// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive and assembly operations. Use errors.Is in callers.
var (
	// ErrArchiveFormat means the gzip header or a tar header is malformed.
	ErrArchiveFormat = errors.New("invalid archive format")
	// ErrArchiveTruncated means the stream ended mid-header or mid-content.
	ErrArchiveTruncated = errors.New("archive stream truncated")
	// ErrDigestMismatch means the input stream digest differs from expected one.
	ErrDigestMismatch = errors.New("archive digest mismatch")
	// ErrUnknownVersion means the input identity is not one of the known dumps.
	ErrUnknownVersion = errors.New("unknown dump version")
	// ErrSourceMissing means a copy rule matched no archive entries.
	ErrSourceMissing = errors.New("copy source missing from archive")
	// ErrTargetMissing means a patch target is absent from the image.
	ErrTargetMissing = errors.New("patch target missing from image")
	// ErrOffsetOutOfRange means offset plus patch length exceeds the target size.
	ErrOffsetOutOfRange = errors.New("patch offset out of range")
	// ErrDuplicatePatch means one offset is patched twice for the same target.
	ErrDuplicatePatch = errors.New("duplicate patch offset")
	// ErrInvalidPlan means copy or text patch rules are malformed.
	ErrInvalidPlan = errors.New("invalid assembly plan")
	// ErrInvalidImagePath means an image path is empty, absolute, or escapes the image root.
	ErrInvalidImagePath = errors.New("invalid image path")
	// ErrScaffoldMissing means a pre-bundled image file is absent.
	ErrScaffoldMissing = errors.New("image scaffold file missing")
	// ErrEntryNotFound means the archive has no entry for the path.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrNilReader means the reader or archive is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrExtractPathOutsideRoot means resolved extraction path escapes destination root.
	ErrExtractPathOutsideRoot = errors.New("extract path escapes destination root")
)

// ArchiveError reports a decode failure together with the last tar entry seen.
type ArchiveError struct {
	// Path is the tar entry being decoded, empty when failure is in gzip layer or first header.
	Path string
	// Err is one of ErrArchiveFormat or ErrArchiveTruncated wrapping the cause.
	Err error
}

// Error implements error.
func (e *ArchiveError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read archive: %v", e.Err)
	}

	return fmt.Sprintf("read archive entry %s: %v", e.Path, e.Err)
}

// Unwrap returns wrapped cause.
func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// StepError reports one failed target inside an assembly stage.
type StepError struct {
	// Err is the sentinel-wrapped cause.
	Err error
	// Stage is the stage that failed.
	Stage Stage
	// Path is the archive source (copy) or image target (patches).
	Path string
	// Offset is the patch offset for binary patch failures.
	Offset uint64
	// HasOffset reports whether Offset is meaningful.
	HasOffset bool
}

// Error implements error.
func (e *StepError) Error() string {
	if e.HasOffset {
		return fmt.Sprintf("%s %s at 0x%X: %v", e.Stage, e.Path, e.Offset, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

// Unwrap returns wrapped cause.
func (e *StepError) Unwrap() error {
	return e.Err
}
