package workouts

import (
	"time"

	"github.com/mladenovic/liftplan/internal/plans"
	"github.com/mladenovic/liftplan/internal/training"
)

// WorkoutExercise is one ordered slot in a workout instance, copied from the
// workout template when the instance is materialized.
type WorkoutExercise struct {
	Exercise plans.Exercise `json:"exercise"`
	Order    int            `json:"order"`
}

type ExerciseSet struct {
	ID                int              `json:"id"`
	WorkoutInstanceID int              `json:"workoutInstanceId"`
	ExerciseID        int              `json:"exerciseId"`
	SetType           training.SetType `json:"setType"`
	Kilos             int              `json:"kilos"`
	Reps              int              `json:"reps"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// WorkoutInstance is the concrete, trackable record of performing a workout
// template on a given day.
type WorkoutInstance struct {
	ID                int        `json:"id"`
	Owner             string     `json:"-"`
	WorkoutTemplateID int        `json:"workoutTemplateId"`
	StartedAt         time.Time  `json:"startedAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`

	Exercises []WorkoutExercise `json:"exercises"`
	Sets      []ExerciseSet     `json:"sets"`
}

func (wi *WorkoutInstance) IsCompleted() bool {
	return wi.CompletedAt != nil
}
