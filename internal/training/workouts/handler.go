package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mladenovic/liftplan/internal/auth"
	"github.com/mladenovic/liftplan/internal/telemetry/tracing"
	"github.com/mladenovic/liftplan/internal/training"
	"github.com/mladenovic/liftplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Get(ctx context.Context, id int, owner string) (*WorkoutInstance, error)
	AddSet(ctx context.Context, set ExerciseSet, owner string) (*ExerciseSet, error)
	Swap(ctx context.Context, workoutInstanceID, exerciseID int, direction training.SwapDirection, owner string) error
}

type SwapResponse struct {
	SwappedID int    `json:"swappedId"`
	Direction string `json:"direction"`
}

type Handler struct {
	repo workoutsRepo
}

func NewHandler(repo workoutsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
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

	wi, err := handler.repo.Get(ctx, id, owner)
	if err != nil && errors.Is(err, training.ErrNotFound) {
		http.Error(w, "workout instance not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get workout instance %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	wiJson, err := json.Marshal(wi)
	if err != nil {
		log.Errorf("failed to marshal workout instance: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, wiJson, http.StatusOK)
}

func (handler *Handler) HandleAddSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.addset")
	defer span.End()

	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	workoutInstanceID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	var set ExerciseSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		log.Tracef("new set, unmarshal json params: %s", err)
		http.Error(w, "add set failed", http.StatusBadRequest)
		return
	}
	set.WorkoutInstanceID = workoutInstanceID

	if !set.SetType.IsValid() {
		http.Error(w, "error, unknown set type", http.StatusBadRequest)
		return
	}
	if set.Reps < 1 {
		http.Error(w, "error, reps must be positive", http.StatusBadRequest)
		return
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now()
	}

	addedSet, err := handler.repo.AddSet(ctx, set, owner)
	if err != nil && errors.Is(err, training.ErrNotFound) {
		http.Error(w, "workout instance or exercise not found", http.StatusNotFound)
		return
	} else if err != nil && errors.Is(err, training.ErrInvalidInput) {
		http.Error(w, "error, unknown set type", http.StatusBadRequest)
		return
	} else if err != nil {
		log.Errorf("failed to add set for workout %d: %s", workoutInstanceID, err)
		http.Error(w, "error, failed to add set", http.StatusInternalServerError)
		return
	}

	setJson, err := json.Marshal(addedSet)
	if err != nil {
		log.Errorf("failed to marshal new set: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new set added: %s", setJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, setJson, http.StatusCreated)
}

func (handler *Handler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.swap")
	defer span.End()

	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	workoutInstanceID, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}
	exerciseID, err := strconv.Atoi(vars["exid"])
	if err != nil {
		http.Error(w, "error, exercise id NaN", http.StatusBadRequest)
		return
	}

	direction := training.SwapDirection(vars["direction"])
	if !direction.IsValid() {
		http.Error(w, "error, direction must be up or down", http.StatusBadRequest)
		return
	}

	err = handler.repo.Swap(ctx, workoutInstanceID, exerciseID, direction, owner)
	switch {
	case err == nil:
	case errors.Is(err, training.ErrCannotMoveFurther):
		http.Error(w, "cannot move exercise further", http.StatusBadRequest)
		return
	case errors.Is(err, training.ErrNotFound):
		http.Error(w, "workout instance or exercise not found", http.StatusNotFound)
		return
	default:
		log.Errorf("failed to swap exercise %d in workout %d: %s", exerciseID, workoutInstanceID, err)
		http.Error(w, "error, failed to swap exercise", http.StatusInternalServerError)
		return
	}

	swapRespJson, err := json.Marshal(SwapResponse{
		SwappedID: exerciseID,
		Direction: string(direction),
	})
	if err != nil {
		log.Errorf("failed to marshal swap response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(swapRespJson))
}
