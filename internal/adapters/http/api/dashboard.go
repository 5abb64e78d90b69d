package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/mentorpulse/internal/domain/indicators"
)

// DashboardDependencies defines the interface for dashboard reads.
type DashboardDependencies interface {
	Dashboard(ctx context.Context) (indicators.GlobalDashboard, error)
	OrganizationDashboard(ctx context.Context, organization string) (indicators.OrganizationDashboard, error)
}

// DashboardHandler handles dashboard requests.
type DashboardHandler struct {
	deps DashboardDependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleDashboard handles GET /dashboard requests.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	d, err := h.deps.Dashboard(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, presentGlobal(d))
}

// HandleOrganization handles GET /dashboard/organization?name=X requests.
func (h *DashboardHandler) HandleOrganization(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_organization_dashboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	d, err := h.deps.OrganizationDashboard(r.Context(), name)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, presentOrganization(d))
}
