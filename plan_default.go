// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import "fmt"

// DefaultScaffold lists files shipped with the HMOD template that must exist
// in image root before assembly.
var DefaultScaffold = []string{
	"install",
	"uninstall",
	"bin/switch_to_nes",
	"bin/switch_to_snes",
	"bin/switch_to_nes_child",
	"etc/nesgames/CLV-P-0SNES/CLV-P-0SNES.desktop",
	"etc/nesgames/CLV-P-0SNES/CLV-P-0SNES.png",
	"etc/nesgames/CLV-P-0SNES/CLV-P-0SNES_small.png",
}

// DefaultLauncherScaffold lists the SNES-side launcher files, relative to the
// tool working directory, that are synced to the console next to the image.
var DefaultLauncherScaffold = []string{
	"CLV-S-00NES/CLV-S-00NES.desktop",
	"CLV-S-00NES/CLV-S-00NES.png",
	"CLV-S-00NES/CLV-S-00NES_small.png",
}

// DefaultPlan returns the hybrid dual boot HMOD layout for a classic console dump.
// Game desktop patches are generated from profile content identifiers.
func DefaultPlan(profile Profile) Plan {
	var p Plan

	// binaries
	p.AddCopy("usr/bin/clover-factory-reset", "bin/clover-factory-reset-nes")
	p.AddCopy("usr/bin/clover-kachikachi", "bin/clover-kachikachi")
	p.AddCopy("usr/bin/clover-mcp", "bin/clover-mcp-nes")
	p.AddCopy("usr/bin/clover-menu-reset", "bin/clover-menu-reset-nes")
	p.AddCopy("usr/bin/clover-production-test-menu", "bin/clover-production-test-menu-nes")
	p.AddCopy("usr/bin/clover-ui", "bin/clover-ui-nes")
	p.AddCopy("usr/bin/kachikachi", "bin/kachikachi")
	p.AddCopy("usr/bin/ReedPlayer-Clover", "bin/ReedPlayer-Clover-nes")

	// shared data
	for _, dir := range []string{
		"applications", "clover-mcp", "clover-ui", "kachikachi", "legal", "locale", "reed-libs",
	} {
		p.AddCopy("usr/share/"+dir, "etc/share/"+dir)
	}

	// libraries
	p.AddCopy("usr/lib/liblzo2.so.2.0.0", "lib/liblzo2.so")
	p.AddCopy("usr/lib/liblzo2.so.2.0.0", "lib/liblzo2.so.2")
	p.AddCopy("usr/lib/liblzo2.so.2.0.0", "lib/liblzo2.so.2.0.0")

	// games
	p.AddCopy("usr/share/games/nes/kachikachi", "etc/nesgames")

	// desktop entries
	p.AddReplace("etc/share/applications/clover-debug-menu.desktop",
		"Exec=/usr/bin/clover-debug-menu", "Exec=/bin/clover-debug-menu-nes")
	p.AddReplace("etc/share/applications/clover-factory-reset.desktop",
		"Exec=/usr/bin/clover-factory-reset", "Exec=/bin/clover-factory-reset-nes")
	p.AddReplace("etc/share/applications/clover-menu-reset.desktop",
		"Exec=/usr/bin/clover-menu-reset", "Exec=/bin/clover-menu-reset-nes")
	p.AddReplace("etc/share/applications/clover-test-menu.desktop",
		"Exec=/usr/bin/clover-production-test-menu", "Exec=/bin/clover-production-test-menu-nes")
	p.AddReplace("etc/share/applications/clover-ui.desktop",
		"Exec=/usr/bin/clover-ui", "Exec=/bin/clover-ui-nes")
	p.AddReplace("etc/share/applications/clover-mcp.desktop",
		"/usr/share/games/nes/kachikachi", "/etc/nesgames",
		"/usr/share/applications", "/etc/share/applications",
		"/usr/share/clover-mcp/", "/etc/share/clover-mcp/",
	)

	// scripts
	p.AddReplace("bin/clover-menu-reset-nes", "home-menu", "nesc-menu")
	// ReedPlayer-Clover-nes would match again on a second run; one pass only.
	p.AddReplace("bin/clover-ui-nes",
		"ReedPlayer-Clover", "ReedPlayer-Clover-nes",
		"/usr/share/", "/etc/share/",
	)

	for _, id := range profile.ContentIDs {
		p.AddReplace(fmt.Sprintf("etc/nesgames/%[1]s/%[1]s.desktop", id),
			"/usr/bin/clover-kachikachi", "/bin/clover-kachikachi-wr",
			"/usr/share/games/nes/kachikachi", "/etc/nesgames",
		)
	}

	return p
}
