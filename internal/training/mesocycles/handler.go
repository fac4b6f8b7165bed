package mesocycles

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
	"github.com/mladenovic/liftplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=mesocycles_test

type mesocyclesService interface {
	Create(ctx context.Context, name string, planTemplateID, iterations int, owner string) (*Mesocycle, error)
	Get(ctx context.Context, id int, owner string) (*Mesocycle, error)
	List(ctx context.Context, owner string) ([]Mesocycle, error)
}

type NewMesocycleRequest struct {
	Name           string `json:"name"`
	PlanTemplateID int    `json:"planTemplateId"`
	Iterations     int    `json:"iterations"`
}

type Handler struct {
	service mesocyclesService
	metrics *metrics.Manager
}

func NewHandler(service mesocyclesService, metrics *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metrics,
	}
}

func (handler *Handler) HandleNew(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.mesocycles.new")
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

	var req NewMesocycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new mesocycle, unmarshal json params: %s", err)
		http.Error(w, "add mesocycle failed", http.StatusBadRequest)
		return
	}

	mesocycle, err := handler.service.Create(ctx, req.Name, req.PlanTemplateID, req.Iterations, owner)
	switch {
	case err == nil:
	case errors.Is(err, training.ErrInvalidInput):
		http.Error(w, "error, invalid mesocycle parameters", http.StatusBadRequest)
		return
	case errors.Is(err, training.ErrNotFound):
		http.Error(w, "plan template not found", http.StatusNotFound)
		return
	default:
		log.Errorf("failed to create mesocycle for template %d: %s", req.PlanTemplateID, err)
		http.Error(w, "error, failed to create mesocycle", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterMesocyclesCreated.Inc()

	mesocycleJson, err := json.Marshal(mesocycle)
	if err != nil {
		log.Errorf("failed to marshal new mesocycle: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new mesocycle %d created for %s, iterations %d", mesocycle.ID, owner, mesocycle.Iterations)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, mesocycleJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.mesocycles.get")
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

	mesocycle, err := handler.service.Get(ctx, id, owner)
	if err != nil && errors.Is(err, training.ErrNotFound) {
		http.Error(w, "mesocycle not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get mesocycle %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	mesocycleJson, err := json.Marshal(mesocycle)
	if err != nil {
		log.Errorf("failed to marshal mesocycle: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, mesocycleJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.mesocycles.list")
	defer span.End()

	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	mesocycles, err := handler.service.List(ctx, owner)
	if err != nil {
		log.Errorf("failed to list mesocycles: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	mesocyclesJson, err := json.Marshal(mesocycles)
	if err != nil {
		log.Errorf("failed to marshal mesocycles: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, mesocyclesJson, http.StatusOK)
}
