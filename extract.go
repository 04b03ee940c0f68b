// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// extractWorkItem stores one selected entry with prepared output relative paths.
type extractWorkItem struct {
	entry   *Entry
	relPath string
	relDir  string
}

// Extract writes archive entries (optionally limited to a prefix) under dstDir.
// Writing is parallelized by MaxWorkers; on failure it returns the first error.
func (a *Archive) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if a == nil {
		return ErrNilReader
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	entries := a.subtree(NormalizePath(opts.Prefix))
	if len(entries) == 0 {
		return nil
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	workItems, err := prepareExtractWorkItems(entries, opts.RawNames)
	if err != nil {
		return err
	}

	if err := prepareExtractDirs(dstRootAbs, workItems); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, task := range workItems {
		if task.entry.IsDir() {
			continue
		}

		g.Go(func() error {
			return extractPreparedEntry(gctx, dstRootAbs, task, opts.OnEntryDone)
		})
	}

	return g.Wait()
}

// prepareExtractWorkItems assigns on-disk relative paths to selected entries.
func prepareExtractWorkItems(entries []*Entry, rawNames bool) ([]extractWorkItem, error) {
	namer := newExtractNamer(len(entries))

	workItems := make([]extractWorkItem, 0, len(entries))
	for _, e := range entries {
		name := e.Path
		if !rawNames {
			name = namer.assign(e)
		}

		normalizedPath, err := normalizeRelativePath(name)
		if err != nil {
			return nil, fmt.Errorf("normalize entry path %s: %w", e.Path, err)
		}

		relPath := filepath.FromSlash(normalizedPath)
		relDir := filepath.Dir(relPath)
		if e.IsDir() {
			relDir = relPath
		}
		if relDir == "." {
			relDir = ""
		}

		workItems = append(workItems, extractWorkItem{
			entry:   e,
			relPath: relPath,
			relDir:  relDir,
		})
	}

	return workItems, nil
}

// prepareExtractDirs creates all unique directories needed by work items.
func prepareExtractDirs(dstRootAbs string, workItems []extractWorkItem) error {
	seen := make(map[string]struct{}, len(workItems))
	for _, task := range workItems {
		if task.relDir == "" {
			continue
		}

		dirPath := filepath.Join(dstRootAbs, task.relDir)
		if _, exists := seen[dirPath]; exists {
			continue
		}

		seen[dirPath] = struct{}{}
		if !isWithinRoot(dstRootAbs, dirPath) {
			return fmt.Errorf("%w: %s", ErrExtractPathOutsideRoot, task.entry.Path)
		}

		if err := os.MkdirAll(dirPath, 0o750); err != nil {
			return fmt.Errorf("create output directory %s: %w", dirPath, err)
		}
	}

	return nil
}

// extractPreparedEntry writes one prepared work item to destination root.
func extractPreparedEntry(ctx context.Context, dstRootAbs string, task extractWorkItem, onEntryDone func(Entry, string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	outPath := filepath.Join(dstRootAbs, task.relPath)
	if !isWithinRoot(dstRootAbs, outPath) {
		return fmt.Errorf("%w: %s", ErrExtractPathOutsideRoot, task.entry.Path)
	}

	mode := task.entry.Mode.Perm()
	if mode == 0 {
		mode = DefaultFileMode
	}

	if err := os.WriteFile(outPath, task.entry.Content, mode); err != nil {
		return fmt.Errorf("write %s: %w", task.entry.Path, err)
	}

	if onEntryDone != nil {
		onEntryDone(cloneEntry(task.entry), outPath)
	}

	return nil
}

// isWithinRoot reports whether target is root itself or lies below it.
func isWithinRoot(root string, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
