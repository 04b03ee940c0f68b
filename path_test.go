// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Maxim Levchenko (WoozyMasta)
// Source: github.com/woozymasta/hmod

package hmod

import (
	"errors"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "slash", in: "/", want: ""},
		{name: "clean", in: "usr/share/clover-ui", want: "usr/share/clover-ui"},
		{name: "tar dot prefix", in: "./usr/bin/clover-mcp", want: "usr/bin/clover-mcp"},
		{name: "directory suffix", in: "usr/share/", want: "usr/share"},
		{name: "windows", in: `.\usr\share\legal\`, want: "usr/share/legal"},
		{name: "dot segments", in: "./a/../b//c.txt", want: "b/c.txt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizePath(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizePath(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeImagePath(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		got, err := normalizeImagePath(`bin\./clover-ui-nes`)
		if err != nil {
			t.Fatalf("normalizeImagePath: %v", err)
		}
		if got != "bin/clover-ui-nes" {
			t.Fatalf("normalizeImagePath=%q, want bin/clover-ui-nes", got)
		}
	})

	for _, in := range []string{"", "/etc/passwd", `C:\hmod`, "../outside", "etc/../../x", "a\x00b"} {
		t.Run("invalid "+in, func(t *testing.T) {
			t.Parallel()

			if _, err := normalizeImagePath(in); !errors.Is(err, ErrInvalidImagePath) {
				t.Fatalf("normalizeImagePath(%q) err=%v, want ErrInvalidImagePath", in, err)
			}
		})
	}
}

func TestRebasePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		p, src, dst string
		want        string
	}{
		{p: "usr/share/legal", src: "usr/share/legal", dst: "etc/share/legal", want: "etc/share/legal"},
		{p: "usr/share/legal/a/b.txt", src: "usr/share/legal", dst: "etc/share/legal", want: "etc/share/legal/a/b.txt"},
		{p: "x/y", src: "", dst: "root", want: "root/x/y"},
	}

	for _, tc := range testCases {
		if got := rebasePath(tc.p, tc.src, tc.dst); got != tc.want {
			t.Fatalf("rebasePath(%q, %q, %q)=%q, want %q", tc.p, tc.src, tc.dst, got, tc.want)
		}
	}

	if isUnderPrefix("usr/share/xy", "usr/share/x") {
		t.Fatal("sibling with common name prefix treated as subtree member")
	}
}
