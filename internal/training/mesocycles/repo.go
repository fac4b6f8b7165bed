package mesocycles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mladenovic/liftplan/internal/plans"
	"github.com/mladenovic/liftplan/internal/telemetry/tracing"
	"github.com/mladenovic/liftplan/internal/training"
	"github.com/mladenovic/liftplan/internal/training/instances"
	"github.com/mladenovic/liftplan/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db        *pgxpool.Pool
	instances *instances.Repo
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db:        db,
		instances: instances.NewRepo(db),
	}
}

// Create inserts the mesocycle together with all its plan instances and their
// day rows in one transaction. A failure anywhere leaves no new rows behind.
func (r *Repo) Create(ctx context.Context, mesocycle Mesocycle, templateDays []plans.PlanDayTemplate) (_ *Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.mesocycles.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("plan_template.id", mesocycle.PlanTemplateID))
	span.SetAttributes(attribute.Int("iterations", mesocycle.Iterations))

	mesocycleID, err := r.createTx(ctx, mesocycle, templateDays)
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, mesocycleID, mesocycle.Owner)
}

func (r *Repo) createTx(ctx context.Context, mesocycle Mesocycle, templateDays []plans.PlanDayTemplate) (mesocycleID int, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
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

	err = tx.QueryRow(ctx, `
		INSERT INTO mesocycle (owner, name, plan_template_id, iterations, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`,
		mesocycle.Owner, mesocycle.Name, mesocycle.PlanTemplateID,
		mesocycle.Iterations, training.StatusNotStarted, time.Now(),
	).Scan(&mesocycleID)
	if err != nil {
		// the template was read through the cache, it can be gone by now
		if pkg.IsForeignKeyViolationError(err) {
			return 0, fmt.Errorf("%w: plan template %d", training.ErrNotFound, mesocycle.PlanTemplateID)
		}
		return 0, fmt.Errorf("insert mesocycle: %w", err)
	}

	for i := 1; i <= mesocycle.Iterations; i++ {
		// only the first iteration starts active, the rest wait unstarted
		// for the cascade to pick them up
		var status *training.Status
		if i == 1 {
			inProgress := training.StatusInProgress
			status = &inProgress
		}

		var planInstanceID int
		err = tx.QueryRow(ctx, `
			INSERT INTO plan_instance
				(owner, plan_template_id, mesocycle_id, iteration_number, rir, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;
		`,
			mesocycle.Owner, mesocycle.PlanTemplateID, mesocycleID,
			i, RIRForIteration(mesocycle.Iterations, i), status, time.Now(),
		).Scan(&planInstanceID)
		if err != nil {
			return 0, fmt.Errorf("insert plan instance, iteration %d: %w", i, err)
		}

		for _, day := range templateDays {
			if _, err := tx.Exec(ctx, `
				INSERT INTO plan_instance_day (plan_instance_id, plan_day_template_id, is_complete)
				VALUES ($1, $2, FALSE);
			`, planInstanceID, day.ID); err != nil {
				return 0, fmt.Errorf("insert plan instance day, iteration %d, day %d: %w", i, day.DayNumber, err)
			}
		}
	}

	return mesocycleID, nil
}

// Get returns the mesocycle with its full iteration tree.
func (r *Repo) Get(ctx context.Context, id int, owner string) (_ *Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.mesocycles.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	m := &Mesocycle{}
	err = r.db.QueryRow(ctx, `
		SELECT id, owner, name, plan_template_id, iterations, status, created_at, completed_at
		FROM mesocycle
		WHERE id = $1 AND owner = $2;
	`, id, owner).Scan(
		&m.ID, &m.Owner, &m.Name, &m.PlanTemplateID,
		&m.Iterations, &m.Status, &m.CreatedAt, &m.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: mesocycle %d", training.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if m.Instances, err = r.instances.ListByMesocycle(ctx, m.ID); err != nil {
		return nil, fmt.Errorf("mesocycle instances: %w", err)
	}

	return m, nil
}

// List returns the owner's mesocycles without their iteration trees, newest
// first.
func (r *Repo) List(ctx context.Context, owner string) (_ []Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.mesocycles.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, owner, name, plan_template_id, iterations, status, created_at, completed_at
		FROM mesocycle
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

	mesocycles := make([]Mesocycle, 0)
	for rows.Next() {
		var m Mesocycle
		if err := rows.Scan(
			&m.ID, &m.Owner, &m.Name, &m.PlanTemplateID,
			&m.Iterations, &m.Status, &m.CreatedAt, &m.CompletedAt,
		); err != nil {
			return nil, err
		}
		mesocycles = append(mesocycles, m)
	}

	return mesocycles, nil
}
