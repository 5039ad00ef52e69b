package qualification

import "testing"

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []PhaseStatus
		fallback Status
		want     Status
	}{
		{
			name:     "all passed",
			statuses: repeat(PhasePassed),
			want:     StatusQualified,
		},
		{
			name:     "passed waived and not applicable",
			statuses: []PhaseStatus{PhasePassed, PhasePassed, PhaseWaived, PhaseNotApplicable, PhasePassed, PhasePassed, PhasePassed},
			want:     StatusQualified,
		},
		{
			name:     "one failed rest passed",
			statuses: []PhaseStatus{PhasePassed, PhasePassed, PhasePassed, PhasePassed, PhasePassed, PhaseFailed, PhasePassed},
			want:     StatusFailed,
		},
		{
			name:     "failed beats in progress",
			statuses: []PhaseStatus{PhasePassed, PhaseInProgress, PhaseFailed, PhasePending, PhasePending, PhasePending, PhasePending},
			want:     StatusFailed,
		},
		{
			name:     "one in progress rest pending",
			statuses: []PhaseStatus{PhaseInProgress, PhasePending, PhasePending, PhasePending, PhasePending, PhasePending, PhasePending},
			want:     StatusInProgress,
		},
		{
			name:     "some passed",
			statuses: []PhaseStatus{PhasePassed, PhasePassed, PhasePending, PhasePending, PhasePending, PhasePending, PhasePending},
			want:     StatusInProgress,
		},
		{
			name:     "waived only is not progress",
			statuses: []PhaseStatus{PhaseWaived, PhasePending, PhasePending, PhasePending, PhasePending, PhasePending, PhasePending},
			want:     StatusNotStarted,
		},
		{
			name:     "all pending default fallback",
			statuses: repeat(PhasePending),
			want:     StatusNotStarted,
		},
		{
			name:     "all pending caller fallback",
			statuses: repeat(PhasePending),
			fallback: StatusUnderMaintenance,
			want:     StatusUnderMaintenance,
		},
		{
			name:     "no phases",
			fallback: StatusQualified,
			want:     StatusQualified,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.statuses, tc.fallback); got != tc.want {
				t.Fatalf("DeriveStatus() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDeriveStatusSingleDeviation(t *testing.T) {
	// Each single non-Passed phase among Passed siblings decides the result on its own.
	want := map[PhaseStatus]Status{
		PhasePending:       StatusInProgress,
		PhaseInProgress:    StatusInProgress,
		PhaseFailed:        StatusFailed,
		PhaseWaived:        StatusQualified,
		PhaseNotApplicable: StatusQualified,
	}
	for i := range Phases() {
		for deviation, expected := range want {
			statuses := repeat(PhasePassed)
			statuses[i] = deviation
			if got := DeriveStatus(statuses, ""); got != expected {
				t.Fatalf("phase %d = %s: DeriveStatus() = %q, want %q", i, deviation, got, expected)
			}
		}
	}
}

func TestReconcileBreakdowns(t *testing.T) {
	cases := []struct {
		current Status
		open    int
		pending int
		want    Status
	}{
		{StatusQualified, 1, 0, StatusUnderMaintenance},
		{StatusUnderMaintenance, 2, 3, StatusUnderMaintenance},
		{StatusUnderMaintenance, 0, 1, StatusRevalidationRequired},
		{StatusUnderMaintenance, 0, 0, StatusQualified},
		{StatusFailed, 0, 0, StatusFailed},
		{StatusRevalidationRequired, 0, 0, StatusRevalidationRequired},
	}
	for _, tc := range cases {
		if got := ReconcileBreakdowns(tc.current, tc.open, tc.pending); got != tc.want {
			t.Fatalf("ReconcileBreakdowns(%q, %d, %d) = %q, want %q", tc.current, tc.open, tc.pending, got, tc.want)
		}
	}
}

func TestApplyBreakdownPriority(t *testing.T) {
	if got := ApplyBreakdownPriority(StatusQualified, 1, 0); got != StatusUnderMaintenance {
		t.Fatalf("ApplyBreakdownPriority() = %q", got)
	}
	if got := ApplyBreakdownPriority(StatusQualified, 0, 2); got != StatusRevalidationRequired {
		t.Fatalf("ApplyBreakdownPriority() = %q", got)
	}
	if got := ApplyBreakdownPriority(StatusFailed, 0, 0); got != StatusFailed {
		t.Fatalf("ApplyBreakdownPriority() = %q", got)
	}
	if OnBreakdownReported() != StatusUnderMaintenance {
		t.Fatalf("OnBreakdownReported() = %q", OnBreakdownReported())
	}
}

func repeat(s PhaseStatus) []PhaseStatus {
	out := make([]PhaseStatus, len(Phases()))
	for i := range out {
		out[i] = s
	}
	return out
}
