package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/mentorpulse/internal/domain/indicators"
)

// AggregateDependencies defines the interface for aggregate reads.
type AggregateDependencies interface {
	Aggregate(ctx context.Context, level indicators.Level, filter string) indicators.AggregatedIndicators
	Organizations(ctx context.Context) []string
	Cohorts(ctx context.Context, organization string) []string
}

// AggregateHandler handles aggregate and listing requests.
type AggregateHandler struct {
	deps AggregateDependencies
}

// NewAggregateHandler creates a new aggregate handler.
func NewAggregateHandler(deps AggregateDependencies) *AggregateHandler {
	return &AggregateHandler{deps: deps}
}

// HandleAggregate handles GET /aggregate?level=L&filter=F requests.
func (h *AggregateHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_aggregate"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	level, ok := indicators.ParseLevel(q.Get("level"))
	if !ok {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown level %q", q.Get("level"))))
		return
	}
	writeJSON(w, http.StatusOK, presentAggregate(h.deps.Aggregate(r.Context(), level, q.Get("filter"))))
}

type listResponse struct {
	Items []string `json:"items"`
}

// HandleOrganizations handles GET /organizations requests.
func (h *AggregateHandler) HandleOrganizations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: h.deps.Organizations(r.Context())})
}

// HandleCohorts handles GET /cohorts?organization=X requests.
func (h *AggregateHandler) HandleCohorts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: h.deps.Cohorts(r.Context(), r.URL.Query().Get("organization"))})
}
