package plans

import "time"

// Exercise is a catalog entry, shared by all templates and workouts.
type Exercise struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup"`
}

// TemplateExercise is one ordered slot in a workout template.
type TemplateExercise struct {
	Exercise Exercise `json:"exercise"`
	Order    int      `json:"order"`
}

type WorkoutTemplate struct {
	ID        int                `json:"id"`
	Owner     string             `json:"-"`
	Name      string             `json:"name"`
	Exercises []TemplateExercise `json:"exercises"`
}

// PlanDayTemplate is one slot in the plan's day sequence. Non-rest days carry
// a workout template; rest days carry none.
type PlanDayTemplate struct {
	ID                int              `json:"id"`
	DayNumber         int              `json:"dayNumber"`
	IsRestDay         bool             `json:"isRestDay"`
	WorkoutTemplateID *int             `json:"workoutTemplateId,omitempty"`
	WorkoutTemplate   *WorkoutTemplate `json:"workoutTemplate,omitempty"`
}

// PlanTemplate is the ordered day sequence a mesocycle repeats. Read-only
// from the progression core's perspective.
type PlanTemplate struct {
	ID        int               `json:"id"`
	Owner     string            `json:"-"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"createdAt"`
	Days      []PlanDayTemplate `json:"days"`
}
