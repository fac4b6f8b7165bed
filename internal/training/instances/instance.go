package instances

import (
	"time"

	"github.com/mladenovic/liftplan/internal/training"
)

// PlanInstance is one concrete run-through of a plan template. Inside a
// mesocycle it carries a 1-based iteration number and a programmed RIR
// (reps-in-reserve) target that shrinks toward the final iteration.
type PlanInstance struct {
	ID              int              `json:"id"`
	Owner           string           `json:"-"`
	PlanTemplateID  int              `json:"planTemplateId"`
	MesocycleID     *int             `json:"mesocycleId,omitempty"`
	IterationNumber int              `json:"iterationNumber"`
	RIR             int              `json:"rir"`
	Status          *training.Status `json:"status,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`

	Days []PlanInstanceDay `json:"days,omitempty"`
}

// PlanInstanceDay is one calendar slot within an iteration. The day template
// reference is read-only; the workout instance reference is set at most once
// and never cleared.
type PlanInstanceDay struct {
	ID                int  `json:"id"`
	PlanInstanceID    int  `json:"planInstanceId"`
	PlanDayTemplateID int  `json:"planDayTemplateId"`
	DayNumber         int  `json:"dayNumber"`
	IsRestDay         bool `json:"isRestDay"`
	WorkoutTemplateID *int `json:"workoutTemplateId,omitempty"`

	// IsComplete is only meaningful for rest days; workout days derive
	// completion from the attached workout instance.
	IsComplete         bool       `json:"isComplete"`
	WorkoutInstanceID  *int       `json:"workoutInstanceId,omitempty"`
	WorkoutCompletedAt *time.Time `json:"workoutCompletedAt,omitempty"`
}

// Completed is the branched completion predicate: a rest day is complete when
// flagged so, a workout day when its workout instance exists and is finished.
func (d PlanInstanceDay) Completed() bool {
	if d.IsRestDay {
		return d.IsComplete
	}
	return d.WorkoutInstanceID != nil && d.WorkoutCompletedAt != nil
}

func (pi *PlanInstance) AllDaysComplete() bool {
	if len(pi.Days) == 0 {
		return false
	}
	for _, d := range pi.Days {
		if !d.Completed() {
			return false
		}
	}
	return true
}

func (pi *PlanInstance) IsComplete() bool {
	return pi.Status != nil && *pi.Status == training.StatusComplete
}

func (pi *PlanInstance) IsInProgress() bool {
	return pi.Status != nil && *pi.Status == training.StatusInProgress
}
