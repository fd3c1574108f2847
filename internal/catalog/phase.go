package catalog

import (
	"fmt"
	"strings"
)

// Phase is one of the four ordered groups of statements
type Phase string

const (
	PhaseDrop   Phase = "drop"
	PhaseCreate Phase = "create"
	PhaseCopy   Phase = "copy"
	PhaseInsert Phase = "insert"
)

// Phases lists every phase in execution order
var Phases = []Phase{PhaseDrop, PhaseCreate, PhaseCopy, PhaseInsert}

// ParsePhase converts a phase name to a Phase
func ParsePhase(name string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Phases {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q (want one of drop, create, copy, insert)", name)
}

// Order returns the position of the phase in the execution order, or -1
func (p Phase) Order() int {
	for i, known := range Phases {
		if p == known {
			return i
		}
	}
	return -1
}

// Destructive reports whether running the phase discards existing rows
func (p Phase) Destructive() bool {
	return p == PhaseDrop || p == PhaseCopy
}
