// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

/*
Package hmod turns a vendor NES/HVC Classic firmware dump (tar+gzip) into
the hybrid dual boot HMOD image tree. It decodes the dump in one pass into an
immutable in-memory Archive, resolves the dump Profile and runs three ordered
stages over the image: copy, text patch and binary patch.

Pipeline rules (summary):
  - archive decode is all or nothing, corrupt or short input returns no Archive;
  - directory entries are kept apart from empty files;
  - a copy source naming a file entry is a file copy, otherwise a subtree copy;
  - text substitutions apply in order, each on the output of the previous one;
  - binary patches overwrite bytes in place and never change file length;
  - targets inside one stage fail independently, a failed stage stops the run.

# Reading

Decode a dump and inspect entries:

	a, err := hmod.OpenArchive("dump/dp-nes-release-v1.0.2-0-g99e37e1.tar.gz")
	if err != nil {
	    return err
	}
	for _, e := range a.Subtree("usr/bin") {
	    fmt.Println(e.Path, e.Size())
	}

For streaming scans without materializing the archive:

	err := hmod.ScanArchive(r, func(e hmod.Entry) error {
	    fmt.Println(e.Kind, e.Path)
	    return nil
	})

# Profiles

Known dumps are a closed set; anything else fails with ErrUnknownVersion:

	profile, err := hmod.ProfileForDump("dp-hvc-release-v1.0.5-0-g2f04d11.tar.gz")
	if err != nil {
	    return err
	}

# Assembling

Build the image with the built-in plan:

	res, err := hmod.Assemble(ctx, a, profile, hmod.DefaultPlan(profile),
	    "nesc_hybrid_system.hmod", hmod.AssembleOptions{})
	if err != nil {
	    var stepErr *hmod.StepError
	    if errors.As(err, &stepErr) {
	        // stepErr.Stage, stepErr.Path, stepErr.Offset
	    }
	    return err
	}
	fmt.Println(len(res.Changes()), "changes")

Plans can also be loaded from YAML:

	plan, err := hmod.LoadPlan("plan.yaml")

A plan document looks like:

	copy:
	  - source: usr/bin/clover-ui
	    destination: bin/clover-ui-nes
	  - source: usr/share/clover-ui
	    destination: etc/share/clover-ui
	    exclude: ["*.bak"]
	text:
	  - path: bin/clover-ui-nes
	    substitutions:
	      - search: /usr/share/
	        replace: /etc/share/

Use NewAssembler with any afero.Fs to assemble into memory or another backend.

# Extracting

Write the decoded dump to disk with sanitized names:

	err := a.Extract(ctx, "dump/extracted", hmod.ExtractOptions{
	    MaxWorkers: 4,
	})
*/
package hmod
