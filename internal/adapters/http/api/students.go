package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/mentorpulse/internal/app"
	"github.com/okian/mentorpulse/internal/domain/indicators"
)

// StudentsDependencies defines the interface for per-student reads.
type StudentsDependencies interface {
	Student(ctx context.Context, studentID string) (indicators.StudentIndicators, error)
	Plan(ctx context.Context, studentID string) (service.Plan, error)
}

// StudentsHandler handles per-student requests.
type StudentsHandler struct {
	deps StudentsDependencies
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(deps StudentsDependencies) *StudentsHandler {
	return &StudentsHandler{deps: deps}
}

// HandleStudent handles GET /students/{id} and GET /students/{id}/plan.
func (h *StudentsHandler) HandleStudent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_student"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/students/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}

	switch rest {
	case "":
		s, err := h.deps.Student(r.Context(), id)
		if err != nil {
			writeError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, presentStudent(s))
	case "plan":
		p, err := h.deps.Plan(r.Context(), id)
		if err != nil {
			writeError(w, Wrap("api.get_plan", err))
			return
		}
		writeJSON(w, http.StatusOK, presentPlan(p))
	default:
		http.NotFound(w, r)
	}
}
