package instances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mladenovic/liftplan/internal/telemetry/tracing"
	"github.com/mladenovic/liftplan/internal/training"
	"github.com/mladenovic/liftplan/internal/training/workouts"
	"github.com/mladenovic/liftplan/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the loading
// helpers can run inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repo struct {
	db       *pgxpool.Pool
	workouts *workouts.Repo
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db:       db,
		workouts: workouts.NewRepo(db),
	}
}

// Get returns the plan instance with all its days and their completion state.
func (r *Repo) Get(ctx context.Context, id int, owner string) (_ *PlanInstance, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.instances.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return r.get(ctx, r.db, id, owner)
}

func (r *Repo) get(ctx context.Context, q querier, id int, owner string) (*PlanInstance, error) {
	pi := &PlanInstance{}
	err := q.QueryRow(ctx, `
		SELECT id, owner, plan_template_id, mesocycle_id, iteration_number, rir, status, created_at, completed_at
		FROM plan_instance
		WHERE id = $1 AND owner = $2;
	`, id, owner).Scan(
		&pi.ID, &pi.Owner, &pi.PlanTemplateID, &pi.MesocycleID,
		&pi.IterationNumber, &pi.RIR, &pi.Status, &pi.CreatedAt, &pi.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan instance %d", training.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if pi.Days, err = r.days(ctx, q, pi.ID); err != nil {
		return nil, fmt.Errorf("plan instance days: %w", err)
	}

	return pi, nil
}

// ListByMesocycle returns every iteration of a mesocycle with its days,
// ordered by iteration number. Owner scoping is the caller's job, done on the
// mesocycle row itself.
func (r *Repo) ListByMesocycle(ctx context.Context, mesocycleID int) (_ []PlanInstance, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.instances.listbymesocycle")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("mesocycle.id", mesocycleID))

	rows, err := r.db.Query(ctx, `
		SELECT id, owner, plan_template_id, mesocycle_id, iteration_number, rir, status, created_at, completed_at
		FROM plan_instance
		WHERE mesocycle_id = $1
		ORDER BY iteration_number;
	`, mesocycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	list := make([]PlanInstance, 0)
	for rows.Next() {
		var pi PlanInstance
		if err := rows.Scan(
			&pi.ID, &pi.Owner, &pi.PlanTemplateID, &pi.MesocycleID,
			&pi.IterationNumber, &pi.RIR, &pi.Status, &pi.CreatedAt, &pi.CompletedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, pi)
	}
	rows.Close()

	for i := range list {
		if list[i].Days, err = r.days(ctx, r.db, list[i].ID); err != nil {
			return nil, fmt.Errorf("days of plan instance %d: %w", list[i].ID, err)
		}
	}

	return list, nil
}

func (r *Repo) days(ctx context.Context, q querier, planInstanceID int) ([]PlanInstanceDay, error) {
	rows, err := q.Query(ctx, `
		SELECT
			d.id, d.plan_instance_id, d.plan_day_template_id,
			pdt.day_number, pdt.is_rest_day, pdt.workout_template_id,
			d.is_complete, d.workout_instance_id, wi.completed_at
		FROM plan_instance_day d
		JOIN plan_day_template pdt ON pdt.id = d.plan_day_template_id
		LEFT JOIN workout_instance wi ON wi.id = d.workout_instance_id
		WHERE d.plan_instance_id = $1
		ORDER BY pdt.day_number;
	`, planInstanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	days := make([]PlanInstanceDay, 0)
	for rows.Next() {
		var d PlanInstanceDay
		if err := rows.Scan(
			&d.ID, &d.PlanInstanceID, &d.PlanDayTemplateID,
			&d.DayNumber, &d.IsRestDay, &d.WorkoutTemplateID,
			&d.IsComplete, &d.WorkoutInstanceID, &d.WorkoutCompletedAt,
		); err != nil {
			return nil, err
		}
		days = append(days, d)
	}

	return days, nil
}

// GetDay returns a single plan instance day with its completion state.
func (r *Repo) GetDay(ctx context.Context, dayID int, owner string) (_ *PlanInstanceDay, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.instances.getday")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", dayID))

	return r.getDay(ctx, r.db, dayID, owner, false)
}

func (r *Repo) getDay(ctx context.Context, q querier, dayID int, owner string, forUpdate bool) (*PlanInstanceDay, error) {
	query := `
		SELECT
			d.id, d.plan_instance_id, d.plan_day_template_id,
			pdt.day_number, pdt.is_rest_day, pdt.workout_template_id,
			d.is_complete, d.workout_instance_id, wi.completed_at
		FROM plan_instance_day d
		JOIN plan_day_template pdt ON pdt.id = d.plan_day_template_id
		JOIN plan_instance pi ON pi.id = d.plan_instance_id
		LEFT JOIN workout_instance wi ON wi.id = d.workout_instance_id
		WHERE d.id = $1 AND pi.owner = $2`
	if forUpdate {
		// lock only the day row; the joined rows stay readable for others
		query += `
		FOR UPDATE OF d`
	}
	query += ";"

	d := &PlanInstanceDay{}
	err := q.QueryRow(ctx, query, dayID, owner).Scan(
		&d.ID, &d.PlanInstanceID, &d.PlanDayTemplateID,
		&d.DayNumber, &d.IsRestDay, &d.WorkoutTemplateID,
		&d.IsComplete, &d.WorkoutInstanceID, &d.WorkoutCompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan instance day %d", training.ErrNotFound, dayID)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// StartDayResult distinguishes a fresh materialization from the idempotent
// return of an already attached workout instance.
type StartDayResult struct {
	*workouts.WorkoutInstance
	Created bool
}

// StartDay materializes the workout instance for a non-rest day, exactly
// once. Repeated and concurrent calls for the same day all observe the same
// workout instance: the day row lock serializes writers, and the conditional
// attach makes sure a losing writer never leaves a second instance behind.
func (r *Repo) StartDay(ctx context.Context, dayID int, owner string) (_ *StartDayResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.instances.startday")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", dayID))

	workoutInstanceID, created, err := r.startDayTx(ctx, dayID, owner)
	if err != nil {
		return nil, err
	}

	wi, err := r.workouts.Get(ctx, workoutInstanceID, owner)
	if err != nil {
		return nil, err
	}
	return &StartDayResult{WorkoutInstance: wi, Created: created}, nil
}

func (r *Repo) startDayTx(ctx context.Context, dayID int, owner string) (workoutInstanceID int, created bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, false, err
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

	day, err := r.getDay(ctx, tx, dayID, owner, true)
	if err != nil {
		return 0, false, err
	}

	if day.WorkoutInstanceID != nil {
		// idempotent path: the day was already started
		return *day.WorkoutInstanceID, false, nil
	}

	if day.IsRestDay {
		return 0, false, fmt.Errorf("%w: cannot start a workout on a rest day", training.ErrInvalidStateTransition)
	}
	if day.WorkoutTemplateID == nil {
		return 0, false, fmt.Errorf("%w: plan day %d", training.ErrMissingWorkoutTemplate, dayID)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO workout_instance (owner, workout_template_id, started_at)
		VALUES ($1, $2, $3)
		RETURNING id;
	`, owner, *day.WorkoutTemplateID, time.Now()).Scan(&workoutInstanceID)
	if err != nil {
		return 0, false, fmt.Errorf("insert workout instance: %w", err)
	}

	// copy the template's ordered exercise list onto the instance
	if _, err := tx.Exec(ctx, `
		INSERT INTO workout_instance_exercise (workout_instance_id, exercise_id, exercise_order)
		SELECT $1, exercise_id, exercise_order
		FROM workout_template_exercise
		WHERE workout_template_id = $2;
	`, workoutInstanceID, *day.WorkoutTemplateID); err != nil {
		return 0, false, fmt.Errorf("copy template exercises: %w", err)
	}

	// the row lock above makes this unconditional in practice; the guard is
	// there so a missed lock can only fail loudly, not duplicate
	tag, err := tx.Exec(ctx, `
		UPDATE plan_instance_day SET workout_instance_id = $1
		WHERE id = $2 AND workout_instance_id IS NULL;
	`, workoutInstanceID, dayID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return 0, false, fmt.Errorf("%w: day %d was started concurrently", training.ErrConflict, dayID)
		}
		return 0, false, fmt.Errorf("attach workout instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, false, fmt.Errorf("%w: day %d was started concurrently", training.ErrConflict, dayID)
	}

	return workoutInstanceID, true, nil
}

// CompleteRestDay marks a rest day complete and reevaluates the owning plan
// instance in the same transaction.
func (r *Repo) CompleteRestDay(ctx context.Context, dayID int, owner string) (_ *PlanInstanceDay, _ CascadeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.instances.completerestday")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", dayID))

	var result CascadeResult

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, result, err
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

	day, err := r.getDay(ctx, tx, dayID, owner, true)
	if err != nil {
		return nil, result, err
	}

	if !day.IsRestDay {
		return nil, result, fmt.Errorf("%w: day %d is not a rest day", training.ErrInvalidStateTransition, dayID)
	}

	if !day.IsComplete {
		if _, err := tx.Exec(ctx, `
			UPDATE plan_instance_day SET is_complete = TRUE WHERE id = $1;
		`, dayID); err != nil {
			return nil, result, fmt.Errorf("complete rest day: %w", err)
		}
		day.IsComplete = true
	}

	if result, err = r.reevaluateTx(ctx, tx, day.PlanInstanceID); err != nil {
		return nil, result, fmt.Errorf("reevaluate plan instance %d: %w", day.PlanInstanceID, err)
	}

	return day, result, nil
}

// CompleteWorkout finishes a workout instance and reevaluates the plan
// instance owning the day that references it, all in one transaction.
func (r *Repo) CompleteWorkout(ctx context.Context, workoutInstanceID int, owner string) (_ *workouts.WorkoutInstance, _ CascadeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.instances.completeworkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout_instance.id", workoutInstanceID))

	result, err := r.completeWorkoutTx(ctx, workoutInstanceID, owner)
	if err != nil {
		return nil, result, err
	}

	wi, err := r.workouts.Get(ctx, workoutInstanceID, owner)
	if err != nil {
		return nil, result, err
	}
	return wi, result, nil
}

func (r *Repo) completeWorkoutTx(ctx context.Context, workoutInstanceID int, owner string) (_ CascadeResult, err error) {
	var result CascadeResult

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return result, err
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

	var (
		completedAt    *time.Time
		planInstanceID *int
		isRestDay      *bool
	)
	err = tx.QueryRow(ctx, `
		SELECT wi.completed_at, d.plan_instance_id, pdt.is_rest_day
		FROM workout_instance wi
		LEFT JOIN plan_instance_day d ON d.workout_instance_id = wi.id
		LEFT JOIN plan_day_template pdt ON pdt.id = d.plan_day_template_id
		WHERE wi.id = $1 AND wi.owner = $2
		FOR UPDATE OF wi;
	`, workoutInstanceID, owner).Scan(&completedAt, &planInstanceID, &isRestDay)
	if errors.Is(err, pgx.ErrNoRows) {
		return result, fmt.Errorf("%w: workout instance %d", training.ErrNotFound, workoutInstanceID)
	}
	if err != nil {
		return result, err
	}

	if isRestDay != nil && *isRestDay {
		return result, fmt.Errorf(
			"%w: workout instance %d is attached to a rest day",
			training.ErrInvalidStateTransition, workoutInstanceID,
		)
	}

	if completedAt == nil {
		if _, err := tx.Exec(ctx, `
			UPDATE workout_instance SET completed_at = $1 WHERE id = $2;
		`, time.Now(), workoutInstanceID); err != nil {
			return result, fmt.Errorf("complete workout instance: %w", err)
		}
	}

	if planInstanceID != nil {
		if result, err = r.reevaluateTx(ctx, tx, *planInstanceID); err != nil {
			return result, fmt.Errorf("reevaluate plan instance %d: %w", *planInstanceID, err)
		}
	}

	return result, nil
}

// Reevaluate re-derives the instance and mesocycle status in its own
// transaction. Normally the cascade runs piggybacked on a day mutation; this
// entry point exists for reconciliation and tests.
func (r *Repo) Reevaluate(ctx context.Context, planInstanceID int, owner string) (_ CascadeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.instances.reevaluate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("plan_instance.id", planInstanceID))

	var result CascadeResult

	// owner scope check before touching anything
	if _, err := r.get(ctx, r.db, planInstanceID, owner); err != nil {
		return result, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return result, err
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

	result, err = r.reevaluateTx(ctx, tx, planInstanceID)
	return result, err
}

// reevaluateTx is the completion cascade: day -> iteration -> mesocycle.
// It must run inside a transaction. Row locks on the plan instance and its
// siblings serialize concurrent cascades for the same mesocycle, so readers
// never observe two IN_PROGRESS iterations.
func (r *Repo) reevaluateTx(ctx context.Context, tx pgx.Tx, planInstanceID int) (CascadeResult, error) {
	var result CascadeResult

	var (
		mesocycleID *int
		status      *training.Status
	)
	err := tx.QueryRow(ctx, `
		SELECT mesocycle_id, status
		FROM plan_instance
		WHERE id = $1
		FOR UPDATE;
	`, planInstanceID).Scan(&mesocycleID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return result, fmt.Errorf("%w: plan instance %d", training.ErrNotFound, planInstanceID)
	}
	if err != nil {
		return result, err
	}

	days, err := r.days(ctx, tx, planInstanceID)
	if err != nil {
		return result, err
	}

	instance := PlanInstance{ID: planInstanceID, Status: status, Days: days}
	if !instance.AllDaysComplete() {
		return result, nil
	}

	// completion is one-directional: an already COMPLETE instance stays
	// untouched, completedAt included
	if status == nil || *status != training.StatusComplete {
		if _, err := tx.Exec(ctx, `
			UPDATE plan_instance SET status = $1, completed_at = $2 WHERE id = $3;
		`, training.StatusComplete, time.Now(), planInstanceID); err != nil {
			return result, fmt.Errorf("complete plan instance: %w", err)
		}
		result.InstanceCompleted = true
	}

	if mesocycleID == nil {
		return result, nil
	}

	siblings, err := r.siblingsForUpdate(ctx, tx, *mesocycleID)
	if err != nil {
		return result, err
	}

	// the row just updated is re-read within the same tx, so the sibling
	// scan sees the instance as COMPLETE already
	if AllComplete(siblings) {
		tag, err := tx.Exec(ctx, `
			UPDATE mesocycle SET status = $1, completed_at = $2
			WHERE id = $3 AND status != $1;
		`, training.StatusComplete, time.Now(), *mesocycleID)
		if err != nil {
			return result, fmt.Errorf("complete mesocycle: %w", err)
		}
		// zero rows means an earlier cascade already closed the mesocycle
		result.MesocycleCompleted = tag.RowsAffected() > 0
		return result, nil
	}

	// a replayed completion finds its successor already active; at most one
	// iteration runs at a time, so activation only happens when none is
	if AnyInProgress(siblings) {
		return result, nil
	}

	next := NextUnstarted(siblings)
	if next == nil {
		// every remaining sibling is already started; nothing to activate
		return result, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE plan_instance SET status = $1 WHERE id = $2;
	`, training.StatusInProgress, next.ID); err != nil {
		return result, fmt.Errorf("activate next iteration: %w", err)
	}
	result.ActivatedInstanceID = &next.ID

	return result, nil
}

func (r *Repo) siblingsForUpdate(ctx context.Context, tx pgx.Tx, mesocycleID int) ([]PlanInstance, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, iteration_number, status
		FROM plan_instance
		WHERE mesocycle_id = $1
		ORDER BY iteration_number
		FOR UPDATE;
	`, mesocycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	siblings := make([]PlanInstance, 0)
	for rows.Next() {
		var pi PlanInstance
		if err := rows.Scan(&pi.ID, &pi.IterationNumber, &pi.Status); err != nil {
			return nil, err
		}
		siblings = append(siblings, pi)
	}

	return siblings, nil
}
