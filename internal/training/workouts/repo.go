package workouts

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

// Get returns the workout instance with its ordered exercises and sets.
func (r *Repo) Get(ctx context.Context, id int, owner string) (_ *WorkoutInstance, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	wi := &WorkoutInstance{}
	err = r.db.QueryRow(ctx, `
		SELECT id, owner, workout_template_id, started_at, completed_at
		FROM workout_instance
		WHERE id = $1 AND owner = $2;
	`, id, owner).Scan(&wi.ID, &wi.Owner, &wi.WorkoutTemplateID, &wi.StartedAt, &wi.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: workout instance %d", training.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if wi.Exercises, err = r.exercises(ctx, wi.ID); err != nil {
		return nil, fmt.Errorf("workout exercises: %w", err)
	}
	if wi.Sets, err = r.sets(ctx, wi.ID); err != nil {
		return nil, fmt.Errorf("workout sets: %w", err)
	}

	return wi, nil
}

// AddSet records one performed set against the workout instance.
func (r *Repo) AddSet(ctx context.Context, set ExerciseSet, owner string) (_ *ExerciseSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.addset")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout_instance.id", set.WorkoutInstanceID))
	span.SetAttributes(attribute.String("set_type", set.SetType.String()))

	if !set.SetType.IsValid() {
		return nil, fmt.Errorf("%w: unknown set type %q", training.ErrInvalidInput, set.SetType)
	}

	// the workout has to exist, belong to the owner, and actually contain
	// the exercise the set is logged against
	var exerciseOrder int
	err = r.db.QueryRow(ctx, `
		SELECT wie.exercise_order
		FROM workout_instance_exercise wie
		JOIN workout_instance wi ON wi.id = wie.workout_instance_id
		WHERE wie.workout_instance_id = $1 AND wie.exercise_id = $2 AND wi.owner = $3;
	`, set.WorkoutInstanceID, set.ExerciseID, owner).Scan(&exerciseOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf(
			"%w: exercise %d in workout instance %d",
			training.ErrNotFound, set.ExerciseID, set.WorkoutInstanceID,
		)
	}
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO exercise_set (workout_instance_id, exercise_id, set_type, kilos, reps, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`, set.WorkoutInstanceID, set.ExerciseID, set.SetType, set.Kilos, set.Reps, set.CreatedAt).Scan(&set.ID)
	if err != nil {
		return nil, err
	}

	return &set, nil
}

// Swap exchanges the order values of the given exercise and its neighbor in
// the requested direction. Both updates happen in one transaction.
func (r *Repo) Swap(
	ctx context.Context,
	workoutInstanceID, exerciseID int,
	direction training.SwapDirection,
	owner string,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.swap")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout_instance.id", workoutInstanceID))
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))
	span.SetAttributes(attribute.String("direction", string(direction)))

	if !direction.IsValid() {
		return fmt.Errorf("%w: unknown swap direction %q", training.ErrInvalidInput, direction)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	rows, err := tx.Query(ctx, `
		SELECT wie.exercise_id, wie.exercise_order
		FROM workout_instance_exercise wie
		JOIN workout_instance wi ON wi.id = wie.workout_instance_id
		WHERE wie.workout_instance_id = $1 AND wi.owner = $2
		ORDER BY wie.exercise_order
		FOR UPDATE OF wie;
	`, workoutInstanceID, owner)
	if err != nil {
		return err
	}

	type entry struct {
		exerciseID int
		order      int
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.exerciseID, &e.order); err != nil {
			rows.Close()
			return err
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	targetIdx := -1
	for i, e := range entries {
		if e.exerciseID == exerciseID {
			targetIdx = i
			break
		}
	}
	if targetIdx == -1 {
		return fmt.Errorf(
			"%w: exercise %d in workout instance %d",
			training.ErrNotFound, exerciseID, workoutInstanceID,
		)
	}

	neighborIdx := targetIdx - 1
	if direction == training.SwapDirectionDown {
		neighborIdx = targetIdx + 1
	}
	if neighborIdx < 0 || neighborIdx >= len(entries) {
		return training.ErrCannotMoveFurther
	}

	target, neighbor := entries[targetIdx], entries[neighborIdx]
	if _, err := tx.Exec(ctx, `
		UPDATE workout_instance_exercise SET exercise_order = $1
		WHERE workout_instance_id = $2 AND exercise_id = $3;
	`, neighbor.order, workoutInstanceID, target.exerciseID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE workout_instance_exercise SET exercise_order = $1
		WHERE workout_instance_id = $2 AND exercise_id = $3;
	`, target.order, workoutInstanceID, neighbor.exerciseID); err != nil {
		return err
	}

	return nil
}

func (r *Repo) exercises(ctx context.Context, workoutInstanceID int) ([]WorkoutExercise, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.name, e.muscle_group, wie.exercise_order
		FROM workout_instance_exercise wie
		JOIN exercise e ON e.id = wie.exercise_id
		WHERE wie.workout_instance_id = $1
		ORDER BY wie.exercise_order;
	`, workoutInstanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	exercises := make([]WorkoutExercise, 0)
	for rows.Next() {
		var we WorkoutExercise
		if err := rows.Scan(&we.Exercise.ID, &we.Exercise.Name, &we.Exercise.MuscleGroup, &we.Order); err != nil {
			return nil, err
		}
		exercises = append(exercises, we)
	}

	return exercises, nil
}

func (r *Repo) sets(ctx context.Context, workoutInstanceID int) ([]ExerciseSet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, workout_instance_id, exercise_id, set_type, kilos, reps, created_at
		FROM exercise_set
		WHERE workout_instance_id = $1
		ORDER BY created_at;
	`, workoutInstanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sets := make([]ExerciseSet, 0)
	for rows.Next() {
		var s ExerciseSet
		if err := rows.Scan(&s.ID, &s.WorkoutInstanceID, &s.ExerciseID, &s.SetType, &s.Kilos, &s.Reps, &s.CreatedAt); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}

	return sets, nil
}
