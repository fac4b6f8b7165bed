package mesocycles

import (
	"context"
	"fmt"

	"github.com/mladenovic/liftplan/internal/plans"
	"github.com/mladenovic/liftplan/internal/telemetry/tracing"
	"github.com/mladenovic/liftplan/internal/training"

	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=mesocycles_test

type mesocyclesRepo interface {
	Create(ctx context.Context, mesocycle Mesocycle, templateDays []plans.PlanDayTemplate) (*Mesocycle, error)
	Get(ctx context.Context, id int, owner string) (*Mesocycle, error)
	List(ctx context.Context, owner string) ([]Mesocycle, error)
}

type templatesProvider interface {
	Get(ctx context.Context, id int, owner string) (*plans.PlanTemplate, error)
}

type Service struct {
	repo      mesocyclesRepo
	templates templatesProvider
}

func NewService(repo mesocyclesRepo, templates templatesProvider) *Service {
	return &Service{
		repo:      repo,
		templates: templates,
	}
}

// Create validates the request, loads the plan template, and hands the fully
// shaped mesocycle to the repo for atomic insertion.
func (s *Service) Create(
	ctx context.Context,
	name string, planTemplateID, iterations int,
	owner string,
) (_ *Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.mesocycles.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("plan_template.id", planTemplateID))
	span.SetAttributes(attribute.Int("iterations", iterations))

	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be at least 1, got %d", training.ErrInvalidInput, iterations)
	}

	template, err := s.templates.Get(ctx, planTemplateID, owner)
	if err != nil {
		return nil, fmt.Errorf("load plan template %d: %w", planTemplateID, err)
	}
	if len(template.Days) == 0 {
		return nil, fmt.Errorf("%w: plan template %d has no days", training.ErrInvalidInput, planTemplateID)
	}

	return s.repo.Create(ctx, Mesocycle{
		Owner:          owner,
		Name:           name,
		PlanTemplateID: planTemplateID,
		Iterations:     iterations,
	}, template.Days)
}

// Get returns the mesocycle tree with the status field already resolved to
// its read-time effective value.
func (s *Service) Get(ctx context.Context, id int, owner string) (_ *Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.mesocycles.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	m, err := s.repo.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	m.Status = m.EffectiveStatus()
	return m, nil
}

func (s *Service) List(ctx context.Context, owner string) (_ []Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.mesocycles.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.repo.List(ctx, owner)
}
