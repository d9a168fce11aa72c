package shift

import "time"

type StateKind string

const (
	StatePending   StateKind = "pending"
	StateRejected  StateKind = "rejected"
	StateScheduled StateKind = "scheduled"
	StateOpen      StateKind = "open"
	StateClosed    StateKind = "closed"
)

// State is an assignment's standing at one instant. ClosedAt is set only
// for StateClosed.
type State struct {
	Kind     StateKind
	ClosedAt *time.Time
}

func (s State) IsOpen() bool { return s.Kind == StateOpen }

// IsApproved treats rows written before the approval workflow existed, which
// carry no status, as approved.
func (a Assignment) IsApproved() bool {
	return a.ApprovalStatus == ApprovalApproved || a.ApprovalStatus == ""
}

// ClosedAt is the exclusive end of the validity interval. Legacy rows that
// were switched off through is_active have no end date, so the time of that
// update stands in for it.
func (a Assignment) ClosedAt() *time.Time {
	if a.ApprovalStatus == ApprovalSuperseded {
		from := a.EffectiveFrom
		return &from
	}
	if a.EffectiveTo != nil {
		return a.EffectiveTo
	}
	if a.LegacyActive != nil && !*a.LegacyActive {
		t := a.UpdatedAt
		return &t
	}
	return nil
}

// IsVoid is true for a row that never covers any instant: one superseded at
// its own start, or an empty interval left by older data.
func (a Assignment) IsVoid() bool {
	if a.ApprovalStatus == ApprovalSuperseded {
		return true
	}
	return a.EffectiveTo != nil && !a.EffectiveTo.After(a.EffectiveFrom)
}

// StateAt resolves the assignment at asOf. This is the single place where the
// legacy flag and the date fields are reconciled; the SQL repository mirrors
// the same rules in its open-at predicate.
func (a Assignment) StateAt(asOf time.Time) State {
	switch a.ApprovalStatus {
	case ApprovalPending:
		return State{Kind: StatePending}
	case ApprovalRejected:
		return State{Kind: StateRejected}
	}

	closedAt := a.ClosedAt()
	if a.IsVoid() || (closedAt != nil && !closedAt.After(asOf)) {
		return State{Kind: StateClosed, ClosedAt: closedAt}
	}
	if asOf.Before(a.EffectiveFrom) {
		return State{Kind: StateScheduled}
	}
	return State{Kind: StateOpen}
}

// Ambiguous reports a legacy row whose is_active flag disagrees with its
// dates at asOf. The dates win.
func (a Assignment) Ambiguous(asOf time.Time) bool {
	if a.LegacyActive == nil || a.EffectiveTo == nil {
		return false
	}
	endedByDate := !a.EffectiveTo.After(asOf)
	return *a.LegacyActive == endedByDate
}

// Blocking reports whether the assignment still pins its shift at now:
// anything not rejected whose interval has not ended, including pending and
// scheduled rows.
func (a Assignment) Blocking(now time.Time) bool {
	if a.ApprovalStatus == ApprovalRejected || a.IsVoid() {
		return false
	}
	closedAt := a.ClosedAt()
	return closedAt == nil || closedAt.After(now)
}

// Overlaps reports whether two half-open intervals share an instant. Nil
// ends are open.
func (a Assignment) Overlaps(b Assignment) bool {
	if a.IsVoid() || b.IsVoid() {
		return false
	}
	aEndsBeforeB := a.EffectiveTo != nil && !a.EffectiveTo.After(b.EffectiveFrom)
	bEndsBeforeA := b.EffectiveTo != nil && !b.EffectiveTo.After(a.EffectiveFrom)
	return !aEndsBeforeB && !bEndsBeforeA
}
