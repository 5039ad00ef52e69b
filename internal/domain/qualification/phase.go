package qualification

import (
	"fmt"
	"strings"
)

type Phase string

const (
	PhaseURS Phase = "URS"
	PhaseDQ  Phase = "DQ"
	PhaseFAT Phase = "FAT"
	PhaseSAT Phase = "SAT"
	PhaseIQ  Phase = "IQ"
	PhaseOQ  Phase = "OQ"
	PhasePQ  Phase = "PQ"
)

var phaseOrder = []Phase{PhaseURS, PhaseDQ, PhaseFAT, PhaseSAT, PhaseIQ, PhaseOQ, PhasePQ}

// PhaseInfo describes a phase for read models and the console.
type PhaseInfo struct {
	Full        string
	Description string
}

var phaseInfo = map[Phase]PhaseInfo{
	PhaseURS: {Full: "User Requirement Specification", Description: "Documents what the user requires the equipment to do"},
	PhaseDQ:  {Full: "Design Qualification", Description: "Verifies the proposed design meets the URS and regulatory requirements"},
	PhaseFAT: {Full: "Factory Acceptance Testing", Description: "Testing at the manufacturer's facility before shipment"},
	PhaseSAT: {Full: "Site Acceptance Testing", Description: "Testing after installation at the user's site"},
	PhaseIQ:  {Full: "Installation Qualification", Description: "Equipment is installed per manufacturer specs and approved drawings"},
	PhaseOQ:  {Full: "Operational Qualification", Description: "Equipment operates within specification, including worst case"},
	PhasePQ:  {Full: "Performance Qualification", Description: "Equipment performs consistently under production conditions"},
}

// Phases returns the canonical qualification pipeline order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// PhaseIndex returns the pipeline position of p, or -1.
func PhaseIndex(p Phase) int {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

func ParsePhase(raw string) (Phase, error) {
	p := Phase(strings.ToUpper(strings.TrimSpace(raw)))
	if PhaseIndex(p) < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, raw)
	}
	return p, nil
}

func (p Phase) Info() PhaseInfo {
	return phaseInfo[p]
}

type PhaseStatus string

const (
	PhasePending       PhaseStatus = "Pending"
	PhaseInProgress    PhaseStatus = "In Progress"
	PhasePassed        PhaseStatus = "Passed"
	PhaseFailed        PhaseStatus = "Failed"
	PhaseWaived        PhaseStatus = "Waived"
	PhaseNotApplicable PhaseStatus = "Not Applicable"
)

var phaseStatuses = map[PhaseStatus]struct{}{
	PhasePending:       {},
	PhaseInProgress:    {},
	PhasePassed:        {},
	PhaseFailed:        {},
	PhaseWaived:        {},
	PhaseNotApplicable: {},
}

func ParsePhaseStatus(raw string) (PhaseStatus, error) {
	s := PhaseStatus(strings.TrimSpace(raw))
	if _, ok := phaseStatuses[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhaseStatus, raw)
	}
	return s, nil
}

// resolved statuses count toward Qualified.
func (s PhaseStatus) resolved() bool {
	return s == PhasePassed || s == PhaseWaived || s == PhaseNotApplicable
}

// IsUnlocked reports whether the phase at index may be entered: the first phase is
// always open, later phases open once their predecessor left Pending (Failed included).
func IsUnlocked(statuses []PhaseStatus, index int) bool {
	if index < 0 || index >= len(statuses) {
		return false
	}
	if index == 0 {
		return true
	}
	return statuses[index-1] != PhasePending
}

// CheckUnlockGate validates a post-edit phase sequence for the phases that were edited.
// statuses must follow the registry order. Any change to a phase, status or record fields,
// needs an unlocked position, and a phase cannot return to Pending while its successor has
// already moved on.
func CheckUnlockGate(statuses []PhaseStatus, edited map[int]struct{}) error {
	for idx := range statuses {
		if _, ok := edited[idx]; !ok {
			continue
		}
		if !IsUnlocked(statuses, idx) {
			return fmt.Errorf("%w: %s requires %s to leave Pending first", ErrPhaseLocked, phaseOrder[idx], phaseOrder[idx-1])
		}
		if statuses[idx] == PhasePending && idx+1 < len(statuses) && statuses[idx+1] != PhasePending {
			return fmt.Errorf("%w: %s cannot return to Pending while %s is %s", ErrPhaseLocked, phaseOrder[idx], phaseOrder[idx+1], statuses[idx+1])
		}
	}
	return nil
}
