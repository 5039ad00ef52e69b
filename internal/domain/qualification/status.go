package qualification

import (
	"fmt"
	"strings"
)

// Status is the aggregate equipment status. It is always derived, never authoritative input.
type Status string

const (
	StatusNotStarted           Status = "Not Started"
	StatusInProgress           Status = "In Progress"
	StatusQualified            Status = "Qualified"
	StatusFailed               Status = "Failed"
	StatusUnderMaintenance     Status = "Under Maintenance"
	StatusRevalidationRequired Status = "Revalidation Required"
	StatusRequalificationDue   Status = "Requalification Due"
	StatusOverdue              Status = "Overdue"
)

var equipmentStatuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusQualified,
	StatusFailed,
	StatusUnderMaintenance,
	StatusRevalidationRequired,
	StatusRequalificationDue,
	StatusOverdue,
}

func EquipmentStatuses() []Status {
	out := make([]Status, len(equipmentStatuses))
	copy(out, equipmentStatuses)
	return out
}

func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range equipmentStatuses {
		if string(s) == trimmed {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEquipmentStatus, raw)
}

type BreakdownStatus string

const (
	BreakdownOpen                   BreakdownStatus = "Open"
	BreakdownUnderInvestigation     BreakdownStatus = "Under Investigation"
	BreakdownMaintenanceInProgress  BreakdownStatus = "Maintenance In Progress"
	BreakdownRevalidationInProgress BreakdownStatus = "Revalidation In Progress"
	BreakdownClosed                 BreakdownStatus = "Closed"
	BreakdownCancelled              BreakdownStatus = "Cancelled"
)

// Resolved breakdowns no longer hold the equipment in maintenance.
func (s BreakdownStatus) Resolved() bool {
	return s == BreakdownClosed || s == BreakdownCancelled
}

func ParseBreakdownStatus(raw string) (BreakdownStatus, error) {
	return parseEnum(raw, ErrInvalidBreakdownStatus,
		BreakdownOpen, BreakdownUnderInvestigation, BreakdownMaintenanceInProgress,
		BreakdownRevalidationInProgress, BreakdownClosed, BreakdownCancelled)
}

type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeverityMajor    Severity = "Major"
	SeverityCritical Severity = "Critical"
)

func ParseSeverity(raw string) (Severity, error) {
	if strings.TrimSpace(raw) == "" {
		return SeverityMinor, nil
	}
	return parseEnum(raw, ErrInvalidSeverity, SeverityMinor, SeverityModerate, SeverityMajor, SeverityCritical)
}

type ValidationImpact string

const (
	ImpactNone    ValidationImpact = "No Impact"
	ImpactPartial ValidationImpact = "Partial Revalidation Required"
	ImpactFull    ValidationImpact = "Full Revalidation Required"
)

func ParseValidationImpact(raw string) (ValidationImpact, error) {
	if strings.TrimSpace(raw) == "" {
		return ImpactNone, nil
	}
	return parseEnum(raw, ErrInvalidValidationImpact, ImpactNone, ImpactPartial, ImpactFull)
}

var breakdownTypes = []string{
	"Mechanical",
	"Electrical",
	"Software/Firmware",
	"Pneumatic/Hydraulic",
	"Calibration Failure",
	"Contamination",
	"Wear & Tear",
	"Other",
}

func ParseBreakdownType(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return breakdownTypes[0], nil
	}
	return parseEnum(raw, ErrInvalidBreakdownType, breakdownTypes...)
}

type RevalidationStatus string

const (
	RevalidationPending    RevalidationStatus = "Pending"
	RevalidationInProgress RevalidationStatus = "In Progress"
	RevalidationPassed     RevalidationStatus = "Passed"
	RevalidationFailed     RevalidationStatus = "Failed"
)

func ParseRevalidationStatus(raw string) (RevalidationStatus, error) {
	return parseEnum(raw, ErrInvalidRevalidationState,
		RevalidationPending, RevalidationInProgress, RevalidationPassed, RevalidationFailed)
}

// ParseRevalidationPhases validates and deduplicates the phases to repeat, keeping IQ, OQ, PQ order.
func ParseRevalidationPhases(raw []string) ([]Phase, error) {
	seen := make(map[Phase]struct{}, len(raw))
	for _, item := range raw {
		if strings.TrimSpace(item) == "" {
			continue
		}
		p, err := ParsePhase(item)
		if err != nil || !isRevalidationPhase(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRevalidationPhase, item)
		}
		seen[p] = struct{}{}
	}

	out := make([]Phase, 0, len(seen))
	for _, p := range []Phase{PhaseIQ, PhaseOQ, PhasePQ} {
		if _, ok := seen[p]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func isRevalidationPhase(p Phase) bool {
	return p == PhaseIQ || p == PhaseOQ || p == PhasePQ
}

type RequalificationStatus string

const (
	RequalificationScheduled  RequalificationStatus = "Scheduled"
	RequalificationInProgress RequalificationStatus = "In Progress"
	RequalificationPassed     RequalificationStatus = "Passed"
	RequalificationFailed     RequalificationStatus = "Failed"
)

// Open requalifications still count toward the next due date.
func (s RequalificationStatus) Open() bool {
	return s == RequalificationScheduled || s == RequalificationInProgress
}

func ParseRequalificationStatus(raw string) (RequalificationStatus, error) {
	return parseEnum(raw, ErrInvalidRequalificationStatus,
		RequalificationScheduled, RequalificationInProgress, RequalificationPassed, RequalificationFailed)
}

func parseEnum[T ~string](raw string, invalid error, allowed ...T) (T, error) {
	trimmed := strings.TrimSpace(raw)
	for _, candidate := range allowed {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %q", invalid, raw)
}
