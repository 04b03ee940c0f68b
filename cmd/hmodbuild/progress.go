// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
	"github.com/woozymasta/hmod"
)

// stageProgress renders one bar per assembly stage. A nil receiver is a no-op.
type stageProgress struct {
	progress *mpb.Progress
	bars     map[hmod.Stage]*mpb.Bar
	done     map[hmod.Stage]int64
}

// newStageProgress creates bars sized from plan and profile. Copy totals are
// estimated from archive subtrees; bars are completed in finish.
func newStageProgress(out io.Writer, archive *hmod.Archive, plan hmod.Plan, profile hmod.Profile) *stageProgress {
	var copyTotal, copyBytes int64
	for _, rule := range plan.Copy {
		if e, ok := archive.Lookup(rule.Source); ok && !e.IsDir() {
			copyTotal++
			copyBytes += e.Size()
			continue
		}

		for _, e := range archive.Subtree(rule.Source) {
			copyTotal++
			copyBytes += e.Size()
		}
	}

	var binaryTotal int64
	for _, target := range profile.BinaryPatches {
		binaryTotal += int64(len(target.Patches))
	}

	totals := []struct {
		stage hmod.Stage
		name  string
		total int64
	}{
		{stage: hmod.StageCopy, name: fmt.Sprintf("copy (%s)", humanize.Bytes(uint64(copyBytes))), total: copyTotal},
		{stage: hmod.StageText, name: "text patch", total: int64(len(plan.Text))},
		{stage: hmod.StageBinary, name: "binary patch", total: binaryTotal},
	}

	p := &stageProgress{
		progress: mpb.New(mpb.WithOutput(out)),
		bars:     make(map[hmod.Stage]*mpb.Bar, len(totals)),
		done:     make(map[hmod.Stage]int64, len(totals)),
	}
	for _, t := range totals {
		p.bars[t.stage] = p.progress.AddBar(
			t.total,
			mpb.PrependDecorators(
				decor.Name(t.name, decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
			),
		)
	}

	return p
}

// onChange advances bar of the change stage.
func (p *stageProgress) onChange(change hmod.Change) {
	if p == nil {
		return
	}

	if bar, ok := p.bars[change.Stage]; ok {
		bar.Increment()
		p.done[change.Stage]++
	}
}

// finish completes all bars, including ones that stopped early, and waits for rendering.
func (p *stageProgress) finish() {
	if p == nil {
		return
	}

	for stage, bar := range p.bars {
		bar.SetTotal(p.done[stage], true)
	}
	p.progress.Wait()
}
