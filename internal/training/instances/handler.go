package instances

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mladenovic/liftplan/internal/auth"
	"github.com/mladenovic/liftplan/internal/telemetry/metrics"
	"github.com/mladenovic/liftplan/internal/telemetry/tracing"
	"github.com/mladenovic/liftplan/internal/training"
	"github.com/mladenovic/liftplan/internal/training/workouts"
	"github.com/mladenovic/liftplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=instances_test

type instancesRepo interface {
	Get(ctx context.Context, id int, owner string) (*PlanInstance, error)
	StartDay(ctx context.Context, dayID int, owner string) (*StartDayResult, error)
	CompleteRestDay(ctx context.Context, dayID int, owner string) (*PlanInstanceDay, CascadeResult, error)
	CompleteWorkout(ctx context.Context, workoutInstanceID int, owner string) (*workouts.WorkoutInstance, CascadeResult, error)
}

type CompleteRestDayResponse struct {
	Day     *PlanInstanceDay `json:"day"`
	Cascade CascadeResult    `json:"cascade"`
}

type CompleteWorkoutResponse struct {
	Workout *workouts.WorkoutInstance `json:"workout"`
	Cascade CascadeResult             `json:"cascade"`
}

type Handler struct {
	repo    instancesRepo
	metrics *metrics.Manager
}

func NewHandler(repo instancesRepo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.instances.get")
	defer span.End()

	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	instance, err := handler.repo.Get(ctx, id, owner)
	if err != nil && errors.Is(err, training.ErrNotFound) {
		http.Error(w, "plan instance not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get plan instance %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	instanceJson, err := json.Marshal(instance)
	if err != nil {
		log.Errorf("failed to marshal plan instance: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, instanceJson, http.StatusOK)
}

// HandleStartDay materializes (or re-returns) the workout instance for a plan
// instance day. A fresh materialization answers 201, the idempotent replay of
// an earlier start answers 200 with the same instance.
func (handler *Handler) HandleStartDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.instances.startday")
	defer span.End()

	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	dayID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	result, err := handler.repo.StartDay(ctx, dayID, owner)
	switch {
	case err == nil:
	case errors.Is(err, training.ErrNotFound):
		http.Error(w, "plan instance day not found", http.StatusNotFound)
		return
	case errors.Is(err, training.ErrInvalidStateTransition):
		http.Error(w, "cannot start a workout on a rest day", http.StatusBadRequest)
		return
	case errors.Is(err, training.ErrMissingWorkoutTemplate):
		http.Error(w, "plan day has no workout template", http.StatusBadRequest)
		return
	case errors.Is(err, training.ErrConflict):
		http.Error(w, "day is being started concurrently, retry", http.StatusConflict)
		return
	default:
		log.Errorf("failed to start day %d: %s", dayID, err)
		http.Error(w, "error, failed to start day", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(result.WorkoutInstance)
	if err != nil {
		log.Errorf("failed to marshal workout instance: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !result.Created {
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusOK)
		return
	}

	handler.metrics.CounterWorkoutsStarted.Inc()
	log.Debugf("workout instance %d started for day %d", result.ID, dayID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusCreated)
}

func (handler *Handler) HandleCompleteRestDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.instances.completerestday")
	defer span.End()

	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	dayID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	day, cascade, err := handler.repo.CompleteRestDay(ctx, dayID, owner)
	switch {
	case err == nil:
	case errors.Is(err, training.ErrNotFound):
		http.Error(w, "plan instance day not found", http.StatusNotFound)
		return
	case errors.Is(err, training.ErrInvalidStateTransition):
		http.Error(w, "day is not a rest day", http.StatusBadRequest)
		return
	default:
		log.Errorf("failed to complete rest day %d: %s", dayID, err)
		http.Error(w, "error, failed to complete rest day", http.StatusInternalServerError)
		return
	}

	handler.countCascade(cascade)

	respJson, err := json.Marshal(CompleteRestDayResponse{Day: day, Cascade: cascade})
	if err != nil {
		log.Errorf("failed to marshal rest day response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.instances.completeworkout")
	defer span.End()

	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workoutInstanceID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	workout, cascade, err := handler.repo.CompleteWorkout(ctx, workoutInstanceID, owner)
	switch {
	case err == nil:
	case errors.Is(err, training.ErrNotFound):
		http.Error(w, "workout instance not found", http.StatusNotFound)
		return
	case errors.Is(err, training.ErrInvalidStateTransition):
		http.Error(w, "cannot complete a workout on a rest day", http.StatusBadRequest)
		return
	default:
		log.Errorf("failed to complete workout %d: %s", workoutInstanceID, err)
		http.Error(w, "error, failed to complete workout", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWorkoutsCompleted.Inc()
	handler.countCascade(cascade)

	respJson, err := json.Marshal(CompleteWorkoutResponse{Workout: workout, Cascade: cascade})
	if err != nil {
		log.Errorf("failed to marshal workout completion response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) countCascade(cascade CascadeResult) {
	if cascade.InstanceCompleted {
		handler.metrics.CounterIterationsCompleted.Inc()
	}
	if cascade.MesocycleCompleted {
		handler.metrics.CounterMesocyclesCompleted.Inc()
	}
}
