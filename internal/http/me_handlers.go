package httpapi

import (
	"net/http"
	"time"

	"indorunners-backend-go/internal/services"
)

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	caller := CurrentCaller(r)
	user, err := s.Users.Get(r.Context(), caller, caller.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]UserDTO{"user": toUserDTO(user)})
}

func (s *Server) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	items, err := s.Registrations.ListMine(r.Context(), CurrentCaller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[RegistrationDTO]{Items: toRegistrationList(items)})
}

type AdminDashboardDTO struct {
	ActiveEvents        int               `json:"activeEvents"`
	ActiveActivities    int               `json:"activeActivities"`
	Members             int               `json:"members"`
	Registrations       int               `json:"registrations"`
	PendingPayments     int               `json:"pendingPayments"`
	PresentAttendance   int               `json:"presentAttendance"`
	RecentEvents        []EventDTO        `json:"recentEvents"`
	RecentRegistrations []RegistrationDTO `json:"recentRegistrations"`
}

type MemberDashboardDTO struct {
	Registrations       int               `json:"registrations"`
	PresentAttendance   int               `json:"presentAttendance"`
	UpcomingEvents      int               `json:"upcomingEvents"`
	UpcomingActivities  int               `json:"upcomingActivities"`
	RecentRegistrations []RegistrationDTO `json:"recentRegistrations"`
	RecentAttendance    []AttendanceDTO   `json:"recentAttendance"`
}

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.Statistics.Dashboard(r.Context(), CurrentCaller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if view.Admin != nil {
		WriteJSON(w, http.StatusOK, adminDashboardDTO(*view.Admin, s.now()))
		return
	}
	WriteJSON(w, http.StatusOK, memberDashboardDTO(*view.Member))
}

func adminDashboardDTO(view services.AdminDashboard, now time.Time) AdminDashboardDTO {
	events := make([]EventDTO, 0, len(view.RecentEvents))
	for _, e := range view.RecentEvents {
		events = append(events, toEventSummaryDTO(e, now, true))
	}
	return AdminDashboardDTO{
		ActiveEvents:        view.ActiveEvents,
		ActiveActivities:    view.ActiveActivities,
		Members:             view.Members,
		Registrations:       view.Registrations,
		PendingPayments:     view.PendingPayments,
		PresentAttendance:   view.PresentAttendance,
		RecentEvents:        events,
		RecentRegistrations: toRegistrationList(view.RecentRegistrations),
	}
}

func memberDashboardDTO(view services.MemberDashboard) MemberDashboardDTO {
	attendance := make([]AttendanceDTO, 0, len(view.RecentAttendance))
	for _, rec := range view.RecentAttendance {
		attendance = append(attendance, toAttendanceRecordDTO(rec))
	}
	return MemberDashboardDTO{
		Registrations:       view.Registrations,
		PresentAttendance:   view.PresentAttendance,
		UpcomingEvents:      view.UpcomingEvents,
		UpcomingActivities:  view.UpcomingActivities,
		RecentRegistrations: toRegistrationList(view.RecentRegistrations),
		RecentAttendance:    attendance,
	}
}
