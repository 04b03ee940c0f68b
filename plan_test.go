// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlanYAML = `
copy:
  - source: usr/bin/clover-ui
    destination: bin/clover-ui-nes
  - source: ./usr/share/clover-ui/
    destination: etc/share/clover-ui
    exclude: ["*.bak"]
text:
  - path: bin/clover-ui-nes
    substitutions:
      - search: ReedPlayer-Clover
        replace: ReedPlayer-Clover-nes
      - search: '/usr/(share)/'
        replace: /etc/share/
        regexp: true
`

func TestDecodePlan(t *testing.T) {
	t.Parallel()

	p, err := DecodePlan(strings.NewReader(samplePlanYAML))
	require.NoError(t, err)

	require.Len(t, p.Copy, 2)
	assert.Equal(t, []string{"*.bak"}, p.Copy[1].Exclude)
	require.Len(t, p.Text, 1)
	require.Len(t, p.Text[0].Substitutions, 2)
	assert.True(t, p.Text[0].Substitutions[1].Regexp)

	normalized, err := p.normalize()
	require.NoError(t, err)
	assert.Equal(t, "usr/share/clover-ui", normalized.Copy[1].Source)
}

func TestDecodePlan_JSON(t *testing.T) {
	t.Parallel()

	p, err := DecodePlan(strings.NewReader(`{"copy":[{"source":"usr/bin/a","destination":"bin/a"}]}`))
	require.NoError(t, err)
	require.Len(t, p.Copy, 1)
	assert.Equal(t, "bin/a", p.Copy[0].Destination)
}

func TestDecodePlan_Invalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "unknown field", doc: "copy:\n  - source: a\n    destination: b\n    mode: 0755\n"},
		{name: "empty source", doc: "copy:\n  - source: ''\n    destination: b\n"},
		{name: "absolute destination", doc: "copy:\n  - source: a\n    destination: /bin/a\n"},
		{name: "escaping text path", doc: "text:\n  - path: ../x\n    substitutions: [{search: a, replace: b}]\n"},
		{name: "empty search", doc: "text:\n  - path: x\n    substitutions: [{search: '', replace: b}]\n"},
		{name: "bad regexp", doc: "text:\n  - path: x\n    substitutions: [{search: '(', replace: b, regexp: true}]\n"},
		{name: "not yaml", doc: "copy: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodePlan(strings.NewReader(tc.doc))
			require.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}

func TestEncodePlan_DefaultPlanRoundTrip(t *testing.T) {
	t.Parallel()

	profile, err := ResolveProfile(VersionHVC105)
	require.NoError(t, err)
	want := DefaultPlan(profile)

	var buf bytes.Buffer
	require.NoError(t, EncodePlan(&buf, want))

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	got, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadPlan_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadPlan(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultPlan(t *testing.T) {
	t.Parallel()

	for _, profile := range Profiles() {
		t.Run(profile.Version.String(), func(t *testing.T) {
			t.Parallel()

			p := DefaultPlan(profile)
			require.NoError(t, p.Validate())

			lzo := 0
			for _, rule := range p.Copy {
				if rule.Source == "usr/lib/liblzo2.so.2.0.0" {
					lzo++
				}
			}
			assert.Equal(t, 3, lzo)

			games := 0
			for _, patch := range p.Text {
				if strings.HasPrefix(patch.Path, "etc/nesgames/CLV-P-") || strings.HasPrefix(patch.Path, "etc/nesgames/PRODUCTION-TESTS/") {
					games++
				}
			}
			assert.Equal(t, len(profile.ContentIDs), games)

			// every binary target is produced by a copy rule
			destinations := make(map[string]bool, len(p.Copy))
			for _, rule := range p.Copy {
				destinations[rule.Destination] = true
			}
			for _, target := range profile.BinaryPatches {
				assert.True(t, destinations[target.Path], "binary target %s not copied", target.Path)
			}
		})
	}
}

func TestPlanClone(t *testing.T) {
	t.Parallel()

	var p Plan
	p.AddCopy("a", "b", "*.tmp")
	p.AddReplace("b", "x", "y")

	c := p.Clone()
	c.Copy[0].Exclude[0] = "changed"
	c.Text[0].Substitutions[0].Search = "changed"

	assert.Equal(t, "*.tmp", p.Copy[0].Exclude[0])
	assert.Equal(t, "x", p.Text[0].Substitutions[0].Search)
}

func TestPlanAddReplaceOddPairs(t *testing.T) {
	t.Parallel()

	var p Plan
	p.AddCopy("usr/bin/clover-ui", "bin/clover-ui-nes")
	p.AddReplace("bin/clover-ui-nes", "/usr/share/", "/etc/share/", "/var/lib/clover")

	require.Len(t, p.Text, 1)
	assert.Equal(t, []Substitution{{Search: "/usr/share/", Replace: "/etc/share/"}}, p.Text[0].Substitutions)

	err := p.Validate()
	require.ErrorIs(t, err, ErrInvalidPlan)
	assert.Contains(t, err.Error(), "/var/lib/clover")

	require.ErrorIs(t, p.Clone().Validate(), ErrInvalidPlan)

	asm, _ := newMemAssembler(t, AssembleOptions{})
	archive := mustReadArchive(t, []tarEntry{{name: "usr/bin/clover-ui", data: []byte("/usr/share/")}})
	res, err := asm.Assemble(context.Background(), archive, testProfile(t), p)
	require.ErrorIs(t, err, ErrInvalidPlan)
	assert.Nil(t, res)
}
