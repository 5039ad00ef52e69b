package qualification

// DeriveStatus maps the phase statuses of one equipment to its aggregate status.
// Rules are evaluated in order and the first match wins; fallback applies when every
// phase is still Pending or there are no phases at all.
func DeriveStatus(statuses []PhaseStatus, fallback Status) Status {
	if fallback == "" {
		fallback = StatusNotStarted
	}
	if len(statuses) == 0 {
		return fallback
	}

	allResolved := true
	anyFailed := false
	anyInProgress := false
	anyPassed := false
	for _, s := range statuses {
		if !s.resolved() {
			allResolved = false
		}
		switch s {
		case PhaseFailed:
			anyFailed = true
		case PhaseInProgress:
			anyInProgress = true
		case PhasePassed:
			anyPassed = true
		}
	}

	switch {
	case allResolved:
		return StatusQualified
	case anyFailed:
		return StatusFailed
	case anyInProgress:
		return StatusInProgress
	case anyPassed:
		return StatusInProgress
	default:
		return fallback
	}
}

// OnBreakdownReported is the unconditional override applied when a breakdown is logged.
func OnBreakdownReported() Status {
	return StatusUnderMaintenance
}

// ReconcileBreakdowns recomputes status after a breakdown changed. openCount counts
// breakdowns that are neither Closed nor Cancelled; pendingRevalidation counts revalidation
// phases of Closed breakdowns that have not Passed. Statuses other than Under Maintenance
// are left alone once everything is resolved.
func ReconcileBreakdowns(current Status, openCount int, pendingRevalidation int) Status {
	switch {
	case openCount > 0:
		return StatusUnderMaintenance
	case pendingRevalidation > 0:
		return StatusRevalidationRequired
	case current == StatusUnderMaintenance:
		return StatusQualified
	default:
		return current
	}
}

// ApplyBreakdownPriority lets unresolved breakdown state win over a phase-derived status.
func ApplyBreakdownPriority(base Status, openCount int, pendingRevalidation int) Status {
	switch {
	case openCount > 0:
		return StatusUnderMaintenance
	case pendingRevalidation > 0:
		return StatusRevalidationRequired
	default:
		return base
	}
}
