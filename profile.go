// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"bytes"
	"fmt"
	"path"
	"slices"
	"strings"
)

// Version is the closed set of recognized dump identities.
// Compare versions by value; there is no fallback version.
type Version uint8

// Known dump versions.
const (
	// VersionNES102 is the NES Classic (USA/EUR) 1.0.2 dump.
	VersionNES102 Version = iota + 1
	// VersionNES103 is the NES Classic (USA/EUR) 1.0.3 dump.
	VersionNES103
	// VersionHVC105 is the Famicom Mini (JPN) 1.0.5 dump.
	VersionHVC105
)

// Region identifies content region of a dump.
type Region string

// Dump regions.
const (
	RegionUSAEUR Region = "usa-eur"
	RegionJPN    Region = "jpn"
)

// BinaryTarget is ordered list of byte patches for one image file.
type BinaryTarget struct {
	// Path is image-relative binary file.
	Path string `json:"path" yaml:"path"`
	// Patches are applied in listed order on one open handle.
	Patches []BytePatch `json:"patches" yaml:"patches"`
}

// Profile describes one known dump: how to recognize it, which games it
// ships and where its binaries must be patched.
type Profile struct {
	// Name is human-readable profile name.
	Name string `json:"name" yaml:"name"`
	// DumpFile is the vendor dump file name for this version.
	DumpFile string `json:"dump_file" yaml:"dump_file"`
	// Region is content region.
	Region Region `json:"region" yaml:"region"`
	// ContentIDs lists game codes shipped in the dump.
	ContentIDs []string `json:"content_ids" yaml:"content_ids"`
	// BinaryPatches is fixed-offset patch table, one item per target file.
	BinaryPatches []BinaryTarget `json:"binary_patches" yaml:"binary_patches"`
	// Version is the profile tag.
	Version Version `json:"version" yaml:"version"`
}

var (
	// patchETC replaces a "usr" path component with "etc".
	patchETC = []byte{0x65, 0x74, 0x63}
	// patchNESC replaces a "home" menu name with "nesc".
	patchNESC = []byte{0x6E, 0x65, 0x73, 0x63}

	// gamesUSAEUR are NES Classic USA/EUR game codes.
	gamesUSAEUR = []string{
		"CLV-P-NAAAE", "CLV-P-NAACE", "CLV-P-NAADE", "CLV-P-NAAEE", "CLV-P-NAAFE",
		"CLV-P-NAAHE", "CLV-P-NAANE", "CLV-P-NAAPE", "CLV-P-NAAQE", "CLV-P-NAARE",
		"CLV-P-NAASE", "CLV-P-NAATE", "CLV-P-NAAUE", "CLV-P-NAAVE", "CLV-P-NAAWE",
		"CLV-P-NAAXE", "CLV-P-NAAZE", "CLV-P-NABBE", "CLV-P-NABCE", "CLV-P-NABJE",
		"CLV-P-NABKE", "CLV-P-NABME", "CLV-P-NABNE", "CLV-P-NABQE", "CLV-P-NABRE",
		"CLV-P-NABVE", "CLV-P-NABXE", "CLV-P-NACBE", "CLV-P-NACDE", "CLV-P-NACHE",
		"PRODUCTION-TESTS",
	}

	// gamesJPN are Famicom Mini game codes.
	gamesJPN = []string{
		"CLV-P-HAAAJ", "CLV-P-HAACJ", "CLV-P-HAADJ", "CLV-P-HAAEJ", "CLV-P-HAAHJ",
		"CLV-P-HAAMJ", "CLV-P-HAANJ", "CLV-P-HAAPJ", "CLV-P-HAAQJ", "CLV-P-HAARJ",
		"CLV-P-HAASJ", "CLV-P-HAAUJ", "CLV-P-HAAWJ", "CLV-P-HAAXJ", "CLV-P-HABBJ",
		"CLV-P-HABCJ", "CLV-P-HABLJ", "CLV-P-HABMJ", "CLV-P-HABNJ", "CLV-P-HABQJ",
		"CLV-P-HABRJ", "CLV-P-HABVJ", "CLV-P-HACAJ", "CLV-P-HACBJ", "CLV-P-HACCJ",
		"CLV-P-HACEJ", "CLV-P-HACHJ", "CLV-P-HACJJ", "CLV-P-HACLJ", "CLV-P-HACPJ",
		"PRODUCTION-TESTS",
	}
)

// binaryTable builds the patch table shared by all dumps; only the
// kachikachi emulator layout differs between releases.
func binaryTable(kachikachi1, kachikachi2 uint64) []BinaryTarget {
	return []BinaryTarget{
		{Path: "bin/clover-mcp-nes", Patches: []BytePatch{
			{Offset: 0x209C5, Bytes: patchETC},
		}},
		{Path: "bin/kachikachi", Patches: []BytePatch{
			{Offset: kachikachi1, Bytes: patchETC},
			{Offset: kachikachi2, Bytes: patchETC},
		}},
		{Path: "bin/ReedPlayer-Clover-nes", Patches: []BytePatch{
			{Offset: 0x12C0B5, Bytes: patchETC},
			{Offset: 0x12C0FC, Bytes: patchNESC},
		}},
	}
}

// profileCatalog is the exhaustive profile table, indexed by Version.
var profileCatalog = map[Version]Profile{
	VersionNES102: {
		Version:       VersionNES102,
		Name:          "NES Classic 1.0.2",
		DumpFile:      "dp-nes-release-v1.0.2-0-g99e37e1.tar.gz",
		Region:        RegionUSAEUR,
		ContentIDs:    gamesUSAEUR,
		BinaryPatches: binaryTable(0x5D00D, 0x5D048),
	},
	VersionNES103: {
		Version:       VersionNES103,
		Name:          "NES Classic 1.0.3",
		DumpFile:      "dp-nes-release-v1.0.3-0-gc4c703b.tar.gz",
		Region:        RegionUSAEUR,
		ContentIDs:    gamesUSAEUR,
		BinaryPatches: binaryTable(0x5D00D, 0x5D048),
	},
	VersionHVC105: {
		Version:       VersionHVC105,
		Name:          "Famicom Mini 1.0.5",
		DumpFile:      "dp-hvc-release-v1.0.5-0-g2f04d11.tar.gz",
		Region:        RegionJPN,
		ContentIDs:    gamesJPN,
		BinaryPatches: binaryTable(0x602BD, 0x602F8),
	},
}

// versionNames maps version tags to stable text tokens.
var versionNames = map[Version]string{
	VersionNES102: "nes-1.0.2",
	VersionNES103: "nes-1.0.3",
	VersionHVC105: "hvc-1.0.5",
}

// String returns stable version token.
func (v Version) String() string {
	if name, ok := versionNames[v]; ok {
		return name
	}

	return fmt.Sprintf("version(%d)", uint8(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	if _, ok := versionNames[v]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, uint8(v))
	}

	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}

	*v = parsed
	return nil
}

// ParseVersion resolves exact version token (for example "nes-1.0.3").
func ParseVersion(token string) (Version, error) {
	for v, name := range versionNames {
		if name == token {
			return v, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, token)
}

// ResolveProfile returns profile for version. Unknown versions fail with
// ErrUnknownVersion; there is no default profile.
func ResolveProfile(v Version) (Profile, error) {
	p, ok := profileCatalog[v]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
	}

	return p.Clone(), nil
}

// ProfileForDump resolves profile by exact dump file name. Directory part of
// filename is ignored; the base name must match a known dump exactly.
func ProfileForDump(filename string) (Profile, error) {
	base := path.Base(strings.ReplaceAll(filename, `\`, `/`))
	for _, v := range knownVersions() {
		if profileCatalog[v].DumpFile == base {
			return profileCatalog[v].Clone(), nil
		}
	}

	return Profile{}, fmt.Errorf("%w: dump file %q", ErrUnknownVersion, base)
}

// Profiles returns all known profiles in version order.
func Profiles() []Profile {
	versions := knownVersions()
	out := make([]Profile, 0, len(versions))
	for _, v := range versions {
		out = append(out, profileCatalog[v].Clone())
	}

	return out
}

// knownVersions returns catalog versions sorted by tag.
func knownVersions() []Version {
	out := make([]Version, 0, len(profileCatalog))
	for v := range profileCatalog {
		out = append(out, v)
	}

	slices.Sort(out)
	return out
}

// Clone returns deep copy of profile.
func (p Profile) Clone() Profile {
	out := p
	out.ContentIDs = slices.Clone(p.ContentIDs)
	out.BinaryPatches = make([]BinaryTarget, len(p.BinaryPatches))
	for i, target := range p.BinaryPatches {
		patches := make([]BytePatch, len(target.Patches))
		for j, patch := range target.Patches {
			patches[j] = BytePatch{Offset: patch.Offset, Bytes: bytes.Clone(patch.Bytes)}
		}

		out.BinaryPatches[i] = BinaryTarget{Path: target.Path, Patches: patches}
	}

	return out
}

// Validate checks patch table consistency: unique targets, unique offsets
// per target, non-empty replacement bytes and safe image paths.
func (p Profile) Validate() error {
	if _, ok := profileCatalog[p.Version]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVersion, p.Version)
	}

	targets := make(map[string]struct{}, len(p.BinaryPatches))
	for _, target := range p.BinaryPatches {
		targetPath, err := normalizeImagePath(target.Path)
		if err != nil {
			return err
		}

		if _, exists := targets[targetPath]; exists {
			return fmt.Errorf("%w: binary target %s listed twice", ErrDuplicatePatch, targetPath)
		}
		targets[targetPath] = struct{}{}

		if err := validateBytePatches(targetPath, target.Patches); err != nil {
			return err
		}
	}

	return nil
}

// validateBytePatches rejects empty replacements and repeated offsets for one target.
func validateBytePatches(targetPath string, patches []BytePatch) error {
	seen := make(map[uint64]struct{}, len(patches))
	for _, patch := range patches {
		if len(patch.Bytes) == 0 {
			return fmt.Errorf("%w: %s has empty patch at 0x%X", ErrInvalidPlan, targetPath, patch.Offset)
		}

		if _, exists := seen[patch.Offset]; exists {
			return fmt.Errorf("%w: %s at 0x%X", ErrDuplicatePatch, targetPath, patch.Offset)
		}
		seen[patch.Offset] = struct{}{}
	}

	return nil
}
