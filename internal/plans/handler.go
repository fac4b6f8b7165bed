package plans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mladenovic/liftplan/internal/auth"
	"github.com/mladenovic/liftplan/internal/telemetry/tracing"
	"github.com/mladenovic/liftplan/internal/training"
	"github.com/mladenovic/liftplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=plans_test

type templatesProvider interface {
	Get(ctx context.Context, id int, owner string) (*PlanTemplate, error)
	List(ctx context.Context, owner string) ([]PlanTemplate, error)
}

type Handler struct {
	provider templatesProvider
}

func NewHandler(provider templatesProvider) *Handler {
	return &Handler{
		provider: provider,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.get")
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

	plan, err := handler.provider.Get(ctx, id, owner)
	if err != nil && errors.Is(err, training.ErrNotFound) {
		http.Error(w, "plan template not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get plan template %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("failed to marshal plan template: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.list")
	defer span.End()

	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	planList, err := handler.provider.List(ctx, owner)
	if err != nil {
		log.Errorf("failed to list plan templates: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	plansJson, err := json.Marshal(planList)
	if err != nil {
		log.Errorf("failed to marshal plan templates: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, plansJson, http.StatusOK)
}
