package qualification

import (
	"errors"
	"testing"
)

func TestPhasesOrder(t *testing.T) {
	got := Phases()
	want := []Phase{PhaseURS, PhaseDQ, PhaseFAT, PhaseSAT, PhaseIQ, PhaseOQ, PhasePQ}
	if len(got) != len(want) {
		t.Fatalf("Phases() len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Phases()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	got[0] = "XX"
	if Phases()[0] != PhaseURS {
		t.Fatalf("Phases() returned shared slice")
	}
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase(" oq ")
	if err != nil {
		t.Fatalf("ParsePhase() error = %v", err)
	}
	if p != PhaseOQ {
		t.Fatalf("ParsePhase() = %s", p)
	}
	if _, err := ParsePhase("VQ"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("ParsePhase() error = %v, want ErrInvalidPhase", err)
	}
	if PhaseDQ.Info().Full != "Design Qualification" {
		t.Fatalf("Info() = %#v", PhaseDQ.Info())
	}
}

func TestParsePhaseStatus(t *testing.T) {
	if _, err := ParsePhaseStatus("Not Applicable"); err != nil {
		t.Fatalf("ParsePhaseStatus() error = %v", err)
	}
	if _, err := ParsePhaseStatus("Done"); !errors.Is(err, ErrInvalidPhaseStatus) {
		t.Fatalf("ParsePhaseStatus() error = %v", err)
	}
}

func TestIsUnlocked(t *testing.T) {
	nonPending := []PhaseStatus{PhaseInProgress, PhasePassed, PhaseFailed, PhaseWaived, PhaseNotApplicable}

	for i := 1; i < 7; i++ {
		statuses := allPending()
		if IsUnlocked(statuses, i) {
			t.Fatalf("IsUnlocked(%d) = true with Pending predecessor", i)
		}
		for _, s := range nonPending {
			statuses[i-1] = s
			if !IsUnlocked(statuses, i) {
				t.Fatalf("IsUnlocked(%d) = false with predecessor %s", i, s)
			}
		}
	}

	if !IsUnlocked(allPending(), 0) {
		t.Fatalf("first phase must always be unlocked")
	}
	if IsUnlocked(allPending(), 7) || IsUnlocked(allPending(), -1) {
		t.Fatalf("out of range index must be locked")
	}
}

func TestCheckUnlockGate(t *testing.T) {
	statuses := allPending()
	statuses[2] = PhasePassed
	err := CheckUnlockGate(statuses, map[int]struct{}{2: {}})
	if !errors.Is(err, ErrPhaseLocked) {
		t.Fatalf("CheckUnlockGate() error = %v, want ErrPhaseLocked", err)
	}

	// Editing URS, DQ and FAT together is fine once each predecessor moves in the same edit.
	statuses[0] = PhasePassed
	statuses[1] = PhaseFailed
	if err := CheckUnlockGate(statuses, map[int]struct{}{0: {}, 1: {}, 2: {}}); err != nil {
		t.Fatalf("CheckUnlockGate() error = %v", err)
	}

	// DQ back to Pending while FAT already Passed.
	statuses[1] = PhasePending
	if err := CheckUnlockGate(statuses, map[int]struct{}{1: {}}); !errors.Is(err, ErrPhaseLocked) {
		t.Fatalf("CheckUnlockGate() error = %v, want ErrPhaseLocked", err)
	}

	// A record-only edit on a locked Pending phase is rejected too.
	statuses = allPending()
	statuses[0] = PhasePassed
	if err := CheckUnlockGate(statuses, map[int]struct{}{4: {}}); !errors.Is(err, ErrPhaseLocked) {
		t.Fatalf("CheckUnlockGate(locked IQ) error = %v, want ErrPhaseLocked", err)
	}

	// Rows outside the edit set are not re-validated.
	if err := CheckUnlockGate(statuses, map[int]struct{}{1: {}}); err != nil {
		t.Fatalf("CheckUnlockGate(DQ) error = %v", err)
	}
	if err := CheckUnlockGate(statuses, nil); err != nil {
		t.Fatalf("CheckUnlockGate(no edits) error = %v", err)
	}
}

func allPending() []PhaseStatus {
	out := make([]PhaseStatus, len(Phases()))
	for i := range out {
		out[i] = PhasePending
	}
	return out
}
