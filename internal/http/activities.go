package httpapi

import (
	"net/http"

	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.Activities.List(r.Context(), CurrentCaller(r), services.ActivityQuery{
		Status:   q.Get("status"),
		Type:     q.Get("type"),
		Upcoming: parseBool(q.Get("upcoming")),
		Limit:    parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]ActivityDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toActivitySummaryDTO(item))
	}
	WriteJSON(w, http.StatusOK, ListResponse[ActivityDTO]{Items: out})
}

func (s *Server) ActivityDetail(w http.ResponseWriter, r *http.Request) {
	activity, err := s.Activities.Get(r.Context(), CurrentCaller(r), chi.URLParam(r, "activityId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toActivitySummaryDTO(activity))
}

func (s *Server) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	att, err := s.Attendance.Record(r.Context(), CurrentCaller(r), services.RecordAttendance{
		ActivityID: req.ActivityID,
		EventID:    req.EventID,
		UserID:     req.UserID,
		Status:     models.AttendanceStatus(req.Status),
		Notes:      req.Notes,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toAttendanceDTO(att))
}

// ListAttendance reads the whole page under the query timeout and then
// writes it as one document.
func (s *Server) ListAttendance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seq, err := s.Attendance.List(r.Context(), CurrentCaller(r), services.AttendanceQuery{
		UserID:     q.Get("userId"),
		ActivityID: q.Get("activityId"),
		EventID:    q.Get("eventId"),
		Status:     q.Get("status"),
		Limit:      parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	items, err := services.Collect(seq)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]AttendanceDTO, 0, len(items))
	for _, rec := range items {
		out = append(out, toAttendanceRecordDTO(rec))
	}
	WriteJSON(w, http.StatusOK, ListResponse[AttendanceDTO]{Items: out})
}
