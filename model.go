// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"io/fs"
	"log/slog"
	"time"

	"github.com/opencontainers/go-digest"
)

// Default file modes used when archive headers carry no permission bits.
const (
	DefaultFileMode fs.FileMode = 0o644
	DefaultDirMode  fs.FileMode = 0o755
)

// EntryKind distinguishes file entries from directory markers.
type EntryKind uint8

// Archive entry kinds.
const (
	// EntryFile is a regular file (or any non-directory record) with content.
	EntryFile EntryKind = iota + 1
	// EntryDirectory is a directory marker without content.
	EntryDirectory
)

// String returns human-readable kind name.
func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Entry is one decoded tar record.
type Entry struct {
	// ModTime is modification time from tar header.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	// Path is the normalized tar header name (no leading "./", no trailing "/").
	Path string `json:"path" yaml:"path"`
	// Linkname is link target for symlink and hardlink records; they carry no content.
	Linkname string `json:"linkname,omitempty" yaml:"linkname,omitempty"`
	// Content holds exact entry bytes; nil for directories.
	Content []byte `json:"-" yaml:"-"`
	// Mode holds permission bits from tar header.
	Mode fs.FileMode `json:"mode" yaml:"mode"`
	// Kind tells file from directory marker.
	Kind EntryKind `json:"kind" yaml:"kind"`
}

// IsDir reports whether entry is a directory marker.
func (e *Entry) IsDir() bool {
	return e.Kind == EntryDirectory
}

// Size returns content length in bytes.
func (e *Entry) Size() int64 {
	return int64(len(e.Content))
}

// CopyRule maps one archive source (file or subtree) to an image destination.
type CopyRule struct {
	// Source is archive path; a file entry is copied as is, anything else is treated as subtree prefix.
	Source string `json:"source" yaml:"source"`
	// Destination is image-relative path of copied file or subtree root.
	Destination string `json:"destination" yaml:"destination"`
	// Exclude lists glob patterns, relative to Source, of subtree members to skip.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Substitution is one search/replace pair of a text patch.
type Substitution struct {
	// Search is literal substring, or regular expression when Regexp is set.
	Search string `json:"search" yaml:"search"`
	// Replace is literal replacement text.
	Replace string `json:"replace" yaml:"replace"`
	// Regexp switches Search to RE2 regular expression matching.
	Regexp bool `json:"regexp,omitempty" yaml:"regexp,omitempty"`
}

// TextPatch lists ordered substitutions for one image file.
// Every substitution sees the output of the previous one.
type TextPatch struct {
	// Path is image-relative target file.
	Path string `json:"path" yaml:"path"`
	// Substitutions are applied in listed order.
	Substitutions []Substitution `json:"substitutions" yaml:"substitutions"`
}

// BytePatch overwrites len(Bytes) bytes at Offset without resizing the file.
type BytePatch struct {
	// Bytes replace existing content starting at Offset.
	Bytes []byte `json:"bytes" yaml:"bytes"`
	// Offset is relative to the original, unpatched target layout.
	Offset uint64 `json:"offset" yaml:"offset"`
}

// Plan is declarative copy and text patch description for one image.
// Binary patches are not part of the plan; they come from the resolved Profile.
type Plan struct {
	// Copy rules are applied in listed order.
	Copy []CopyRule `json:"copy" yaml:"copy"`
	// Text patches are applied in listed order after all copies.
	Text []TextPatch `json:"text,omitempty" yaml:"text,omitempty"`
	// buildErrs holds builder misuse reported by Validate.
	buildErrs []error
}

// Stage identifies one assembly pipeline stage.
type Stage string

// Assembly stages in execution order.
const (
	// StageCopy places archive entries into image.
	StageCopy Stage = "copy"
	// StageText rewrites text files in place.
	StageText Stage = "text"
	// StageBinary overwrites fixed byte ranges in binaries.
	StageBinary Stage = "binary"
)

// ChangeAction describes what a stage did to one image path.
type ChangeAction string

// Image change actions.
const (
	// ChangeCreateDir means a directory was created from a directory entry.
	ChangeCreateDir ChangeAction = "mkdir"
	// ChangeWrite means a file was written from archive content.
	ChangeWrite ChangeAction = "write"
	// ChangeRewrite means a text file was rewritten in full.
	ChangeRewrite ChangeAction = "rewrite"
	// ChangePatch means bytes were overwritten in place.
	ChangePatch ChangeAction = "patch"
)

// Change is one immutable record of image mutation.
type Change struct {
	// Stage that produced the change.
	Stage Stage `json:"stage" yaml:"stage"`
	// Action performed on Path.
	Action ChangeAction `json:"action" yaml:"action"`
	// Path is image-relative path.
	Path string `json:"path" yaml:"path"`
	// Source is archive path for copy changes.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Size is written bytes (copy, rewrite) or patched bytes (binary).
	Size int64 `json:"size" yaml:"size"`
	// Offset is patch offset for binary changes.
	Offset uint64 `json:"offset,omitempty" yaml:"offset,omitempty"`
	// Replacements counts matched substitutions for text changes.
	Replacements int `json:"replacements,omitempty" yaml:"replacements,omitempty"`
}

// StageReport holds changes made by one completed or failed stage.
type StageReport struct {
	// Stage is the reported stage.
	Stage Stage `json:"stage" yaml:"stage"`
	// Changes in application order.
	Changes []Change `json:"changes" yaml:"changes"`
	// Failed counts targets that failed in this stage.
	Failed int `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Result summarizes one Assemble run.
type Result struct {
	// ArchiveDigest is digest of the compressed input stream.
	ArchiveDigest digest.Digest `json:"archive_digest,omitempty" yaml:"archive_digest,omitempty"`
	// Stages lists reports for every stage that ran, in order.
	Stages []StageReport `json:"stages" yaml:"stages"`
	// Version is resolved profile version.
	Version Version `json:"version" yaml:"version"`
	// Duration is end-to-end assemble duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Changes returns all recorded changes across stages.
func (r *Result) Changes() []Change {
	if r == nil {
		return nil
	}

	var out []Change
	for _, stage := range r.Stages {
		out = append(out, stage.Changes...)
	}

	return out
}

// AssembleOptions configures Assembler behavior.
type AssembleOptions struct {
	// Logger receives debug records for stages and targets; discarded when nil.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// OnChange is called after every image change.
	OnChange func(change Change) `json:"-" yaml:"-"`
	// ExpectedDigest fails assembly early when archive digest differs; empty disables check.
	ExpectedDigest digest.Digest `json:"expected_digest,omitempty" yaml:"expected_digest,omitempty"`
	// FileMode is used for copied files whose tar header has no permission bits.
	FileMode fs.FileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// DirMode is used for created directories.
	DirMode fs.FileMode `json:"dir_mode,omitempty" yaml:"dir_mode,omitempty"`
}

// ExtractOptions configures Archive.Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry Entry, outputPath string) `json:"-" yaml:"-"`
	// Prefix limits extraction to entries under archive prefix; empty means all.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables default path sanitization during extract.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}

// applyDefaults fills zero-valued assemble options with defaults.
func (opts *AssembleOptions) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.FileMode == 0 {
		opts.FileMode = DefaultFileMode
	}

	if opts.DirMode == 0 {
		opts.DirMode = DefaultDirMode
	}
}
