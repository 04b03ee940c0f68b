// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckScaffold(t *testing.T) {
	t.Parallel()

	image := afero.NewMemMapFs()
	for _, name := range DefaultScaffold {
		require.NoError(t, afero.WriteFile(image, name, []byte("x"), 0o644))
	}
	require.NoError(t, CheckScaffold(image, DefaultScaffold))

	require.NoError(t, image.Remove("install"))
	require.NoError(t, image.Remove("bin/switch_to_nes"))

	err := CheckScaffold(image, DefaultScaffold)
	require.ErrorIs(t, err, ErrScaffoldMissing)
	assert.Contains(t, err.Error(), "install")
	assert.Contains(t, err.Error(), "bin/switch_to_nes")
}

func TestCheckScaffold_DirectoryIsNotFile(t *testing.T) {
	t.Parallel()

	image := afero.NewMemMapFs()
	require.NoError(t, image.MkdirAll("install", 0o755))

	require.ErrorIs(t, CheckScaffold(image, []string{"install"}), ErrScaffoldMissing)
	require.ErrorIs(t, CheckScaffold(nil, []string{"install"}), ErrNilReader)
}

func TestDetectDump(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, _, err := DetectDump(dir)
	require.ErrorIs(t, err, ErrUnknownVersion)

	// unrelated archives are ignored
	writeTarGzFile(t, dir, "dp-nes-release-v9.9.9.tar.gz", []tarEntry{{name: "a", data: []byte("a")}})
	_, _, err = DetectDump(dir)
	require.ErrorIs(t, err, ErrUnknownVersion)

	hvc := writeTarGzFile(t, dir, "dp-hvc-release-v1.0.5-0-g2f04d11.tar.gz", []tarEntry{{name: "a", data: []byte("a")}})
	profile, path, err := DetectDump(dir)
	require.NoError(t, err)
	assert.Equal(t, VersionHVC105, profile.Version)
	assert.Equal(t, hvc, path)

	// lower version wins when several dumps are present
	writeTarGzFile(t, dir, "dp-nes-release-v1.0.3-0-gc4c703b.tar.gz", []tarEntry{{name: "a", data: []byte("a")}})
	profile, _, err = DetectDump(dir)
	require.NoError(t, err)
	assert.Equal(t, VersionNES103, profile.Version)
}

func TestDetectDump_SkipsDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dp-nes-release-v1.0.2-0-g99e37e1.tar.gz"), 0o755))

	_, _, err := DetectDump(dir)
	require.ErrorIs(t, err, ErrUnknownVersion)
}
