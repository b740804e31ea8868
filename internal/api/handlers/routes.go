package handlers

import (
	"context"
	"delivery-dispatch-service/internal/api/dto"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/services"
	"errors"
	"net/http"
	"strconv"
)

type RouteLifecycle interface {
	GetRoute(ctx context.Context, routeID string) (*domain.Route, error)
	TransitionRoute(ctx context.Context, routeID string, next domain.RouteStatus) (*domain.Route, error)
	UpdateStop(ctx context.Context, routeID string, sequence int, status domain.StopStatus) (*domain.Route, error)
	DeleteRoute(ctx context.Context, routeID string) error
}

type RouteAssigner interface {
	AssignBest(ctx context.Context, routeID string) (*services.AssignmentResult, error)
	ClaimRoute(ctx context.Context, routeID, staffID string) (*domain.Route, error)
	AssignAllPending(ctx context.Context) (services.BatchResult, error)
}

type RouteCreator interface {
	CreateRoute(ctx context.Context, req services.CreateRouteRequest) (*domain.Route, error)
}

// RouteHandler exposes route creation, lifecycle and assignment endpoints.
type RouteHandler struct {
	Lifecycle RouteLifecycle
	Assigner  RouteAssigner
	Planner   RouteCreator
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	route, err := h.Lifecycle.GetRoute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "get route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Planner.CreateRoute(r.Context(), services.CreateRouteRequest{
		ShopIDs:       req.ShopIDs,
		OptimizeOrder: req.OptimizeOrder,
	})
	if err != nil {
		writeServiceError(w, r, "create route", err)
		return
	}

	w.Header().Set("Location", "/routes/"+route.ID)
	writeJSON(w, r, http.StatusCreated, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Assign(w http.ResponseWriter, r *http.Request) {
	res, err := h.Assigner.AssignBest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "assign route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.AssignResponse{
		RouteID:    res.RouteID,
		StaffID:    res.StaffID,
		ZoneID:     res.ZoneID,
		Score:      res.Score,
		Candidates: res.Candidates,
		Route:      dto.NewRouteResponse(res.Route),
	})
}

// AssignPending runs one batch over every pending route. Per-route failures are
// part of a successful response; only a failed or aborted run is an error.
func (h *RouteHandler) AssignPending(w http.ResponseWriter, r *http.Request) {
	res, err := h.Assigner.AssignAllPending(r.Context())
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		writeServiceError(w, r, "assign pending routes", err)
		return
	}

	out := dto.BatchResponse{
		Succeeded: make([]dto.BatchAssignment, 0, len(res.Succeeded)),
		Failed:    make([]dto.BatchFailure, 0, len(res.Failed)),
	}
	for _, s := range res.Succeeded {
		out.Succeeded = append(out.Succeeded, dto.BatchAssignment{RouteID: s.RouteID, StaffID: s.StaffID, Score: s.Score})
	}
	for _, f := range res.Failed {
		out.Failed = append(out.Failed, dto.BatchFailure{RouteID: f.RouteID, Error: f.Err.Error()})
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, out)
}

func (h *RouteHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req dto.TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	next, err := domain.ParseRouteStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Lifecycle.TransitionRoute(r.Context(), r.PathValue("id"), next)
	if err != nil {
		writeServiceError(w, r, "transition route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req dto.ClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Assigner.ClaimRoute(r.Context(), r.PathValue("id"), req.StaffID)
	if err != nil {
		writeServiceError(w, r, "claim route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) UpdateStop(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(r.PathValue("seq"))
	if err != nil || seq < 1 {
		writeError(w, r, http.StatusBadRequest, "stop sequence must be a positive integer")
		return
	}

	var req dto.UpdateStopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	status, err := domain.ParseStopStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Lifecycle.UpdateStop(r.Context(), r.PathValue("id"), seq, status)
	if err != nil {
		writeServiceError(w, r, "update stop", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Lifecycle.DeleteRoute(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, "delete route", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
