package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/mentorpulse/internal/domain/dedupe"
	model "github.com/okian/mentorpulse/internal/domain/model"
)

// maxBatchBytes bounds the size of one ingestion request body.
const maxBatchBytes = 32 << 20

// RecordsDependencies defines what ingestion needs.
type RecordsDependencies interface {
	dedupe.Deduper
	Ingest(ctx context.Context, batchID string, batch *model.Dataset) (int, error)
}

// RecordsHandler handles ingestion requests.
type RecordsHandler struct {
	deps RecordsDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordsDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// RecordsRequest mirrors the OpenAPI schema for POST /records.
type RecordsRequest struct {
	BatchID string `json:"batch_id"`
	model.Dataset
}

func (r *RecordsRequest) validate() error {
	if strings.TrimSpace(r.BatchID) == "" {
		return errors.New("missing batch_id")
	}
	if r.Len() == 0 && len(r.Cycles) == 0 && len(r.Mandatory) == 0 {
		return errors.New("batch has no records")
	}
	for i, m := range r.Mentoring {
		if strings.TrimSpace(m.StudentID) == "" {
			return fmt.Errorf("mentoring[%d]: missing student_id", i)
		}
		if err := validAttendance(m.Attendance); err != nil {
			return fmt.Errorf("mentoring[%d]: %w", i, err)
		}
		switch m.Task {
		case "", model.TaskDelivered, model.TaskNotDelivered, model.TaskNone:
		default:
			return fmt.Errorf("mentoring[%d]: invalid task %q", i, m.Task)
		}
		if m.Engagement != nil && (*m.Engagement < 0 || *m.Engagement > 5) {
			return fmt.Errorf("mentoring[%d]: engagement must be within 0-5", i)
		}
	}
	for i, e := range r.Events {
		if strings.TrimSpace(e.StudentID) == "" {
			return fmt.Errorf("events[%d]: missing student_id", i)
		}
		if err := validAttendance(e.Attendance); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	for i, p := range r.Performance {
		if strings.TrimSpace(p.StudentID) == "" {
			return fmt.Errorf("performance[%d]: missing student_id", i)
		}
	}
	return nil
}

func validAttendance(a model.Attendance) error {
	switch a {
	case model.AttendancePresent, model.AttendanceAbsent:
		return nil
	default:
		return fmt.Errorf("invalid attendance %q", a)
	}
}

// ackResponse acknowledges an ingestion request.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Students  int    `json:"students"`
}

// HandlePostRecords handles POST /records requests.
func (h *RecordsHandler) HandlePostRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_records"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req RecordsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes)).Decode(&req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	if h.deps.SeenAndRecord(r.Context(), req.BatchID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	n, err := h.deps.Ingest(r.Context(), req.BatchID, &req.Dataset)
	if err != nil {
		// Forget the batch id so the client can retry it.
		h.deps.Unrecord(r.Context(), req.BatchID)
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Students: n})
}
