// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/mentorpulse/internal/app"
	"github.com/okian/mentorpulse/internal/domain/dedupe"
	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	"github.com/okian/mentorpulse/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper
	StatsProvider

	Ingest(ctx context.Context, batchID string, batch *model.Dataset) (int, error)
	Refresh(ctx context.Context) (service.RefreshResult, error)

	Student(ctx context.Context, studentID string) (indicators.StudentIndicators, error)
	Plan(ctx context.Context, studentID string) (service.Plan, error)
	Dashboard(ctx context.Context) (indicators.GlobalDashboard, error)
	OrganizationDashboard(ctx context.Context, organization string) (indicators.OrganizationDashboard, error)
	Aggregate(ctx context.Context, level indicators.Level, filter string) indicators.AggregatedIndicators
	Organizations(ctx context.Context) []string
	Cohorts(ctx context.Context, organization string) []string
	TopN(ctx context.Context, n int) ([]types.RankEntry, error)
	Rank(ctx context.Context, studentID string) (types.RankEntry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	recordsHandler     *RecordsHandler
	refreshHandler     *RefreshHandler
	studentsHandler    *StudentsHandler
	dashboardHandler   *DashboardHandler
	aggregateHandler   *AggregateHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers. maxLimit bounds
// the leaderboard size a client may request.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		recordsHandler:     NewRecordsHandler(deps),
		refreshHandler:     NewRefreshHandler(deps),
		studentsHandler:    NewStudentsHandler(deps),
		dashboardHandler:   NewDashboardHandler(deps),
		aggregateHandler:   NewAggregateHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/records", MetricsMiddleware(s.recordsHandler.HandlePostRecords, "records"))
	mux.HandleFunc("/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("/students/", MetricsMiddleware(s.studentsHandler.HandleStudent, "students"))
	mux.HandleFunc("/dashboard", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))
	mux.HandleFunc("/dashboard/organization", MetricsMiddleware(s.dashboardHandler.HandleOrganization, "dashboard_organization"))
	mux.HandleFunc("/aggregate", MetricsMiddleware(s.aggregateHandler.HandleAggregate, "aggregate"))
	mux.HandleFunc("/organizations", MetricsMiddleware(s.aggregateHandler.HandleOrganizations, "organizations"))
	mux.HandleFunc("/cohorts", MetricsMiddleware(s.aggregateHandler.HandleCohorts, "cohorts"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status through its kind.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
