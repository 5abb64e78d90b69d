package api

import (
	"context"
	"net/http"

	service "github.com/okian/mentorpulse/internal/app"
)

// RefreshDependencies defines the interface for full reloads.
type RefreshDependencies interface {
	Refresh(ctx context.Context) (service.RefreshResult, error)
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	Students int   `json:"students"`
	Records  int   `json:"records"`
	TookMs   int64 `json:"took_ms"`
}

// HandleRefresh handles POST /refresh requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.Refresh(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Students: res.Students,
		Records:  res.Records,
		TookMs:   res.Took.Milliseconds(),
	})
}
