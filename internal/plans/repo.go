package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/mladenovic/liftplan/internal/telemetry/tracing"
	"github.com/mladenovic/liftplan/internal/training"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Get returns a plan template with its ordered days and the embedded workout
// templates (exercise lists included), scoped to the owner.
func (r *Repo) Get(ctx context.Context, id int, owner string) (_ *PlanTemplate, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	plan := &PlanTemplate{}
	err = r.db.QueryRow(ctx, `
		SELECT id, owner, name, created_at
		FROM plan_template
		WHERE id = $1 AND owner = $2;
	`, id, owner).Scan(&plan.ID, &plan.Owner, &plan.Name, &plan.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan template %d", training.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	days, err := r.planDays(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("plan days: %w", err)
	}
	plan.Days = days

	for i := range plan.Days {
		if plan.Days[i].WorkoutTemplateID == nil {
			continue
		}
		wt, err := r.workoutTemplate(ctx, *plan.Days[i].WorkoutTemplateID)
		if err != nil {
			return nil, fmt.Errorf("workout template: %w", err)
		}
		plan.Days[i].WorkoutTemplate = wt
	}

	return plan, nil
}

// List returns the owner's plan templates with days, without the embedded
// workout template exercise lists.
func (r *Repo) List(ctx context.Context, owner string) (_ []PlanTemplate, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, owner, name, created_at
		FROM plan_template
		WHERE owner = $1
		ORDER BY created_at DESC;
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	plansList := make([]PlanTemplate, 0)
	for rows.Next() {
		var p PlanTemplate
		if err := rows.Scan(&p.ID, &p.Owner, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		plansList = append(plansList, p)
	}

	for i := range plansList {
		days, err := r.planDays(ctx, plansList[i].ID)
		if err != nil {
			return nil, fmt.Errorf("plan days: %w", err)
		}
		plansList[i].Days = days
	}

	return plansList, nil
}

func (r *Repo) planDays(ctx context.Context, planTemplateID int) ([]PlanDayTemplate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, day_number, is_rest_day, workout_template_id
		FROM plan_day_template
		WHERE plan_template_id = $1
		ORDER BY day_number;
	`, planTemplateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	days := make([]PlanDayTemplate, 0)
	for rows.Next() {
		var d PlanDayTemplate
		if err := rows.Scan(&d.ID, &d.DayNumber, &d.IsRestDay, &d.WorkoutTemplateID); err != nil {
			return nil, err
		}
		days = append(days, d)
	}

	return days, nil
}

func (r *Repo) workoutTemplate(ctx context.Context, id int) (*WorkoutTemplate, error) {
	wt := &WorkoutTemplate{}
	err := r.db.QueryRow(ctx, `
		SELECT id, owner, name
		FROM workout_template
		WHERE id = $1;
	`, id).Scan(&wt.ID, &wt.Owner, &wt.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: workout template %d", training.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.name, e.muscle_group, wte.exercise_order
		FROM workout_template_exercise wte
		JOIN exercise e ON e.id = wte.exercise_id
		WHERE wte.workout_template_id = $1
		ORDER BY wte.exercise_order;
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	wt.Exercises = make([]TemplateExercise, 0)
	for rows.Next() {
		var te TemplateExercise
		if err := rows.Scan(&te.Exercise.ID, &te.Exercise.Name, &te.Exercise.MuscleGroup, &te.Order); err != nil {
			return nil, err
		}
		wt.Exercises = append(wt.Exercises, te)
	}

	return wt, nil
}
