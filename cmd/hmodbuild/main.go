// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

// Command hmodbuild assembles the NES/SNES Classic hybrid dual boot HMOD
// from a vendor NES or HVC Classic dump.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/woozymasta/hmod"
)

const toolVersion = "0.3.0"

// options holds parsed command line flags.
type options struct {
	dumpDir      string
	dumpFile     string
	hmodDir      string
	launcherDir  string
	planFile     string
	profileToken string
	expectDigest string
	extractDir   string
	printPlan    bool
	listProfiles bool
	skipChecks   bool
	verbose      bool
	quiet        bool
}

func main() {
	opts, ok := parseFlags()
	if !ok {
		return
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("build failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

// parseFlags reads command line; false means the program should exit without building.
func parseFlags() (options, bool) {
	var opts options

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hmodbuild [options]\n\n")
		fmt.Fprintf(os.Stderr, "hmodbuild builds the hybrid dual boot HMOD from a NES/HVC Classic dump.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hmodbuild                          # detect dump in ./dump, build ./nesc_hybrid_system.hmod\n")
		fmt.Fprintf(os.Stderr, "  hmodbuild -f dump.tar.gz -P nes-1.0.3\n")
		fmt.Fprintf(os.Stderr, "  hmodbuild --print-plan > plan.yaml  # dump built-in plan for editing\n")
	}

	pflag.StringVarP(&opts.dumpDir, "dump-dir", "d", "dump", "Directory searched for a known dump archive")
	pflag.StringVarP(&opts.dumpFile, "dump", "f", "", "Explicit dump archive path (skips detection)")
	pflag.StringVarP(&opts.hmodDir, "hmod", "o", "nesc_hybrid_system.hmod", "HMOD image directory with pre-bundled files")
	pflag.StringVar(&opts.launcherDir, "launcher-dir", ".", "Directory holding the CLV-S-00NES launcher folder")
	pflag.StringVarP(&opts.planFile, "plan", "p", "", "YAML plan file replacing the built-in copy and text plan")
	pflag.StringVarP(&opts.profileToken, "profile", "P", "", "Dump profile (nes-1.0.2, nes-1.0.3, hvc-1.0.5); default from dump name")
	pflag.StringVar(&opts.expectDigest, "digest", "", "Expected dump digest (sha256:...)")
	pflag.StringVarP(&opts.extractDir, "extract", "x", "", "Also extract the full dump into this directory")
	pflag.BoolVar(&opts.printPlan, "print-plan", false, "Print the built-in plan for the selected profile and exit")
	pflag.BoolVarP(&opts.listProfiles, "list", "l", false, "List known dump profiles and exit")
	pflag.BoolVar(&opts.skipChecks, "skip-checks", false, "Do not verify pre-bundled HMOD and launcher files")
	pflag.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	pflag.BoolVarP(&opts.quiet, "quiet", "q", false, "Disable progress bars")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return opts, false
	}

	if *versionFlag {
		fmt.Printf("hmodbuild version %s\n", toolVersion)
		return opts, false
	}

	return opts, true
}

// run executes the whole build for parsed options.
func run(ctx context.Context, opts options, out io.Writer, logger *slog.Logger) error {
	if opts.listProfiles {
		for _, p := range hmod.Profiles() {
			fmt.Fprintf(out, "%-10s %-8s %3d games  %s\n", p.Version, p.Region, len(p.ContentIDs), p.DumpFile)
		}
		return nil
	}

	if opts.printPlan {
		profile, err := printPlanProfile(opts)
		if err != nil {
			return err
		}
		return hmod.EncodePlan(out, hmod.DefaultPlan(profile))
	}

	fmt.Fprintf(out, "SNES / NES Classic Hybrid Dual Boot Tool v%s\n", toolVersion)

	if !opts.skipChecks {
		logger.Info("verifying pre-bundled HMOD files", slog.String("dir", opts.hmodDir))
		if err := hmod.CheckScaffold(afero.NewBasePathFs(afero.NewOsFs(), opts.hmodDir), hmod.DefaultScaffold); err != nil {
			return fmt.Errorf("HMOD folder incomplete, please redownload the application: %w", err)
		}

		logger.Info("verifying pre-bundled launcher files", slog.String("dir", opts.launcherDir))
		if err := hmod.CheckScaffold(afero.NewBasePathFs(afero.NewOsFs(), opts.launcherDir), hmod.DefaultLauncherScaffold); err != nil {
			return fmt.Errorf("launcher files incomplete, please redownload the application: %w", err)
		}
	}

	profile, dumpPath, err := selectDump(opts)
	if err != nil {
		return err
	}
	logger.Info("dump selected", slog.String("file", dumpPath), slog.String("profile", profile.Version.String()))

	plan := hmod.DefaultPlan(profile)
	if opts.planFile != "" {
		if plan, err = hmod.LoadPlan(opts.planFile); err != nil {
			return err
		}
	}

	archive, err := hmod.OpenArchive(dumpPath)
	if err != nil {
		return err
	}
	logger.Info("dump decoded",
		slog.Int("entries", archive.Len()),
		slog.String("size", humanize.Bytes(uint64(archive.Size()))),
		slog.String("digest", archive.Digest().String()))

	if opts.extractDir != "" {
		logger.Info("extracting dump", slog.String("dir", opts.extractDir))
		if err := archive.Extract(ctx, opts.extractDir, hmod.ExtractOptions{
			OnEntryDone: func(entry hmod.Entry, outputPath string) {
				logger.Debug("extracted", slog.String("path", outputPath), slog.String("size", humanize.Bytes(uint64(entry.Size()))))
			},
		}); err != nil {
			return err
		}
	}

	var expected digest.Digest
	if opts.expectDigest != "" {
		if expected, err = digest.Parse(opts.expectDigest); err != nil {
			return fmt.Errorf("parse --digest: %w", err)
		}
	}

	var progress *stageProgress
	if !opts.quiet {
		progress = newStageProgress(out, archive, plan, profile)
	}

	res, err := hmod.Assemble(ctx, archive, profile, plan, opts.hmodDir, hmod.AssembleOptions{
		Logger:         logger,
		ExpectedDigest: expected,
		OnChange:       progress.onChange,
	})
	progress.finish()
	if res != nil {
		printSummary(out, res)
	}
	if err != nil {
		var stepErr *hmod.StepError
		if errors.As(err, &stepErr) {
			logger.Error("first failed target", slog.String("stage", string(stepErr.Stage)), slog.String("path", stepErr.Path))
		}
		return err
	}

	fmt.Fprintln(out, "Complete! Install the resulting HMOD using hakchi2, and copy the CLV-S-00NES")
	fmt.Fprintln(out, "folder to the games_snes folder in hakchi to sync it to your console.")
	return nil
}

// selectDump resolves dump path and profile from explicit flags or directory detection.
func selectDump(opts options) (hmod.Profile, string, error) {
	var (
		profile  hmod.Profile
		dumpPath string
		err      error
	)

	switch {
	case opts.dumpFile != "":
		dumpPath = opts.dumpFile
		if opts.profileToken == "" {
			profile, err = hmod.ProfileForDump(dumpPath)
		}
	default:
		profile, dumpPath, err = hmod.DetectDump(opts.dumpDir)
	}
	if err != nil {
		return hmod.Profile{}, "", err
	}

	if opts.profileToken != "" {
		v, err := hmod.ParseVersion(opts.profileToken)
		if err != nil {
			return hmod.Profile{}, "", err
		}
		if profile, err = hmod.ResolveProfile(v); err != nil {
			return hmod.Profile{}, "", err
		}
	}

	return profile, filepath.Clean(dumpPath), nil
}

// printPlanProfile picks profile for --print-plan without touching the dump.
func printPlanProfile(opts options) (hmod.Profile, error) {
	switch {
	case opts.profileToken != "":
		v, err := hmod.ParseVersion(opts.profileToken)
		if err != nil {
			return hmod.Profile{}, err
		}
		return hmod.ResolveProfile(v)
	case opts.dumpFile != "":
		return hmod.ProfileForDump(opts.dumpFile)
	default:
		profile, _, err := hmod.DetectDump(opts.dumpDir)
		return profile, err
	}
}

// printSummary writes per-stage change counts.
func printSummary(out io.Writer, res *hmod.Result) {
	for _, stage := range res.Stages {
		var size int64
		for _, change := range stage.Changes {
			size += change.Size
		}

		line := fmt.Sprintf("%-6s %4d changes, %s", stage.Stage, len(stage.Changes), humanize.Bytes(uint64(size)))
		if stage.Failed > 0 {
			line += fmt.Sprintf(", %d failed", stage.Failed)
		}
		fmt.Fprintln(out, line)
	}
	short := res.ArchiveDigest.Encoded()
	if len(short) > 12 {
		short = short[:12]
	}
	fmt.Fprintf(out, "profile %s, dump %s, took %s\n", res.Version, short, res.Duration.Round(time.Millisecond))
}
