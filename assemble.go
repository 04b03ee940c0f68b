// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Assembler composes an image tree from archive entries. One Assembler
// targets one image root; concurrent runs against the same root are not supported.
type Assembler struct {
	image afero.Fs
	log   *slog.Logger
	opts  AssembleOptions
}

// stageFunc runs one pipeline stage and returns its report.
type stageFunc func(run *stageRun)

// NewAssembler creates assembler writing into image filesystem.
// Image paths are relative to the filesystem root.
func NewAssembler(image afero.Fs, opts AssembleOptions) (*Assembler, error) {
	if image == nil {
		return nil, fmt.Errorf("%w: image filesystem", ErrNilReader)
	}

	opts.applyDefaults()
	return &Assembler{
		image: image,
		log:   opts.Logger,
		opts:  opts,
	}, nil
}

// Assemble runs copy, text patch and binary patch stages in order.
//
// Inside a stage every target is attempted even if an earlier one failed;
// a stage with failures stops the pipeline before the next stage starts.
// The returned Result lists reports of all stages that ran, also on error.
// There is no rollback: a failed run leaves a partial, invalid image.
func (a *Assembler) Assemble(ctx context.Context, archive *Archive, profile Profile, plan Plan) (*Result, error) {
	if a == nil {
		return nil, ErrNilReader
	}
	if archive == nil {
		return nil, fmt.Errorf("%w: archive", ErrNilReader)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	normalized, err := plan.normalize()
	if err != nil {
		return nil, err
	}

	if a.opts.ExpectedDigest != "" && a.opts.ExpectedDigest != archive.Digest() {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrDigestMismatch, archive.Digest(), a.opts.ExpectedDigest)
	}

	start := time.Now()
	res := &Result{
		Version:       profile.Version,
		ArchiveDigest: archive.Digest(),
		Stages:        make([]StageReport, 0, 3),
	}

	stages := []struct {
		run   stageFunc
		stage Stage
	}{
		{stage: StageCopy, run: func(run *stageRun) { a.copyStage(run, archive, normalized.Copy) }},
		{stage: StageText, run: func(run *stageRun) { a.textStage(run, normalized.Text) }},
		{stage: StageBinary, run: func(run *stageRun) { a.binaryStage(run, profile.BinaryPatches) }},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}

		a.log.Debug("stage start", slog.String("stage", string(st.stage)))
		run := &stageRun{stage: st.stage, onChange: a.opts.OnChange}
		st.run(run)

		report, err := run.report()
		res.Stages = append(res.Stages, report)
		a.log.Debug("stage done",
			slog.String("stage", string(st.stage)),
			slog.Int("changes", len(report.Changes)),
			slog.Int("failed", report.Failed))

		if err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("%s stage: %w", st.stage, err)
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Assemble builds image under destRoot on the OS filesystem.
// destRoot must already exist (it holds the pre-bundled scaffold).
func Assemble(ctx context.Context, archive *Archive, profile Profile, plan Plan, destRoot string, opts AssembleOptions) (*Result, error) {
	root, err := filepath.Abs(destRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve image root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("image root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("image root %s: not a directory", root)
	}

	asm, err := NewAssembler(afero.NewBasePathFs(afero.NewOsFs(), root), opts)
	if err != nil {
		return nil, err
	}

	return asm.Assemble(ctx, archive, profile, plan)
}

// stageRun collects changes and per-target failures of one stage.
type stageRun struct {
	onChange func(change Change)
	stage    Stage
	changes  []Change
	errs     []error
}

// record stores change and notifies progress callback.
func (s *stageRun) record(change Change) {
	change.Stage = s.stage
	s.changes = append(s.changes, change)
	if s.onChange != nil {
		s.onChange(change)
	}
}

// fail stores one target failure.
func (s *stageRun) fail(err error) {
	s.errs = append(s.errs, err)
}

// report returns immutable stage report and joined failures.
func (s *stageRun) report() (StageReport, error) {
	changes := make([]Change, len(s.changes))
	copy(changes, s.changes)

	return StageReport{
		Stage:   s.stage,
		Changes: changes,
		Failed:  len(s.errs),
	}, errors.Join(s.errs...)
}

// stepError builds StepError for current stage.
func (s *stageRun) stepError(path string, err error) *StepError {
	return &StepError{Stage: s.stage, Path: path, Err: err}
}
