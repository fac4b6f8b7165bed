package instances

// The cascade decisions are kept as pure functions over loaded siblings, so
// the transition rules can be tested without a database. The repo applies
// their outcome inside one transaction.

// AllComplete reports whether every sibling instance is COMPLETE.
func AllComplete(siblings []PlanInstance) bool {
	if len(siblings) == 0 {
		return false
	}
	for i := range siblings {
		if !siblings[i].IsComplete() {
			return false
		}
	}
	return true
}

// AnyInProgress reports whether some sibling instance is currently active.
func AnyInProgress(siblings []PlanInstance) bool {
	for i := range siblings {
		if siblings[i].IsInProgress() {
			return true
		}
	}
	return false
}

// NextUnstarted picks the instance to activate once the current iteration
// finishes: the unstarted sibling with the lowest iteration number. Returns
// nil when every sibling has already been started.
func NextUnstarted(siblings []PlanInstance) *PlanInstance {
	var next *PlanInstance
	for i := range siblings {
		if siblings[i].Status != nil {
			continue
		}
		if next == nil || siblings[i].IterationNumber < next.IterationNumber {
			next = &siblings[i]
		}
	}
	return next
}

// CascadeResult describes what a single reevaluation changed.
type CascadeResult struct {
	InstanceCompleted  bool `json:"instanceCompleted"`
	MesocycleCompleted bool `json:"mesocycleCompleted"`
	// ActivatedInstanceID is set when the next iteration was switched to
	// IN_PROGRESS by this reevaluation.
	ActivatedInstanceID *int `json:"activatedInstanceId,omitempty"`
}
