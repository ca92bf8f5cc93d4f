package emu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
)

// quirkProfiles maps preset names to the interpreter behaviour they emulate.
var quirkProfiles = map[string]cpu.Quirks{
	// COSMAC VIP interpreter
	"vip": {
		ShiftUsesVY:          true,
		LoadStoreIncrementsI: true,
		LogicResetsVF:        true,
	},
	// HP48 SCHIP 1.1
	"schip": {
		JumpUsesVX: true,
	},
	// CHIP-48 and most modern interpreters
	"modern": {},
}

// QuirkProfile looks up a preset by name (case-insensitive).
func QuirkProfile(name string) (cpu.Quirks, error) {
	q, ok := quirkProfiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return cpu.Quirks{}, fmt.Errorf("unknown quirk profile %q (have %s)", name, strings.Join(QuirkProfiles(), ", "))
	}
	return q, nil
}

// QuirkProfiles lists the preset names in sorted order.
func QuirkProfiles() []string {
	names := make([]string, 0, len(quirkProfiles))
	for n := range quirkProfiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
