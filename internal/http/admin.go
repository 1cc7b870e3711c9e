package httpapi

import (
	"net/http"

	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) AdminEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.Events.List(r.Context(), CurrentCaller(r), services.EventQuery{
		Status:   q.Get("status"),
		Upcoming: parseBool(q.Get("upcoming")),
		Limit:    parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	now := s.now()
	out := make([]EventDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toEventSummaryDTO(item, now, true))
	}
	WriteJSON(w, http.StatusOK, ListResponse[EventDTO]{Items: out})
}

func (s *Server) AdminEventDetail(w http.ResponseWriter, r *http.Request) {
	event, err := s.Events.Get(r.Context(), CurrentCaller(r), chi.URLParam(r, "eventId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toEventSummaryDTO(event, s.now(), true))
}

func (s *Server) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	event, err := s.Events.Create(r.Context(), CurrentCaller(r), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toEventDTO(event, s.now()))
}

func (s *Server) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	event, err := s.Events.Update(r.Context(), CurrentCaller(r), chi.URLParam(r, "eventId"), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toEventDTO(event, s.now()))
}

func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.Events.Delete(r.Context(), CurrentCaller(r), chi.URLParam(r, "eventId")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	activity, err := s.Activities.Create(r.Context(), CurrentCaller(r), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toActivityDTO(activity))
}

func (s *Server) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	activity, err := s.Activities.Update(r.Context(), CurrentCaller(r), chi.URLParam(r, "activityId"), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toActivityDTO(activity))
}

func (s *Server) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.Activities.Delete(r.Context(), CurrentCaller(r), chi.URLParam(r, "activityId")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AdminRegistrations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.Registrations.List(r.Context(), CurrentCaller(r), services.RegistrationQuery{
		EventID: q.Get("eventId"),
		Status:  q.Get("status"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[RegistrationDTO]{Items: toRegistrationList(items)})
}

func (s *Server) AdminRegistrationDetail(w http.ResponseWriter, r *http.Request) {
	reg, err := s.Registrations.Get(r.Context(), CurrentCaller(r), chi.URLParam(r, "registrationId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRegistrationDetailDTO(reg))
}

func (s *Server) TransitionRegistration(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	reg, err := s.Registrations.Transition(r.Context(), CurrentCaller(r), chi.URLParam(r, "registrationId"), models.RegistrationStatus(req.Status))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRegistrationDTO(reg))
}
