package services

import (
	"context"

	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/store"
)

type AdminDashboard struct {
	ActiveEvents        int
	ActiveActivities    int
	Members             int
	Registrations       int
	PendingPayments     int
	PresentAttendance   int
	RecentEvents        []models.EventSummary
	RecentRegistrations []models.RegistrationDetail
}

type MemberDashboard struct {
	Registrations       int
	PresentAttendance   int
	UpcomingEvents      int
	UpcomingActivities  int
	RecentRegistrations []models.RegistrationDetail
	RecentAttendance    []models.AttendanceRecord
}

// Dashboard holds exactly one of the two views.
type Dashboard struct {
	Admin  *AdminDashboard
	Member *MemberDashboard
}

type StatisticsService struct {
	Deps
}

func NewStatisticsService(d Deps) *StatisticsService {
	return &StatisticsService{Deps: d.withDefaults()}
}

func (s *StatisticsService) Dashboard(ctx context.Context, caller policy.Caller) (Dashboard, error) {
	if err := s.Policy.Authorize(caller, policy.ViewStatistics); err != nil {
		return Dashboard{}, err
	}
	if caller.IsAdmin() {
		view, err := s.admin(ctx)
		if err != nil {
			return Dashboard{}, store.Translate(err, "admin dashboard")
		}
		return Dashboard{Admin: &view}, nil
	}
	view, err := s.member(ctx, caller)
	if err != nil {
		return Dashboard{}, store.Translate(err, "member dashboard")
	}
	return Dashboard{Member: &view}, nil
}

func (s *StatisticsService) admin(ctx context.Context) (AdminDashboard, error) {
	var view AdminDashboard
	var err error
	active := models.OccasionActive
	pending := models.RegistrationPendingPayment
	present := models.AttendancePresent

	if view.ActiveEvents, err = s.Store.CountEvents(ctx, store.EventFilter{Status: &active}); err != nil {
		return view, err
	}
	if view.ActiveActivities, err = s.Store.CountActivities(ctx, store.ActivityFilter{Status: &active}); err != nil {
		return view, err
	}
	if view.Members, err = s.Store.CountUsersByRole(ctx, models.RoleMember); err != nil {
		return view, err
	}
	if view.Registrations, err = s.Store.CountRegistrations(ctx, store.RegistrationFilter{ExcludeCancelled: true}); err != nil {
		return view, err
	}
	if view.PendingPayments, err = s.Store.CountRegistrations(ctx, store.RegistrationFilter{Status: &pending}); err != nil {
		return view, err
	}
	if view.PresentAttendance, err = s.Store.CountAttendance(ctx, store.AttendanceFilter{Status: &present}); err != nil {
		return view, err
	}
	if view.RecentEvents, err = s.Store.ListEvents(ctx, store.EventFilter{NewestFirst: true, Limit: 5}); err != nil {
		return view, err
	}
	if view.RecentRegistrations, err = s.Store.ListRegistrations(ctx, store.RegistrationFilter{Limit: 5}); err != nil {
		return view, err
	}
	return view, nil
}

func (s *StatisticsService) member(ctx context.Context, caller policy.Caller) (MemberDashboard, error) {
	var view MemberDashboard
	var err error
	now := s.Now()
	active := models.OccasionActive
	present := models.AttendancePresent

	if view.Registrations, err = s.Store.CountRegistrations(ctx, store.RegistrationFilter{UserID: caller.UserID, ExcludeCancelled: true}); err != nil {
		return view, err
	}
	if view.PresentAttendance, err = s.Store.CountAttendance(ctx, store.AttendanceFilter{UserID: caller.UserID, Status: &present}); err != nil {
		return view, err
	}
	if view.UpcomingEvents, err = s.Store.CountEvents(ctx, store.EventFilter{Status: &active, From: &now}); err != nil {
		return view, err
	}
	if view.UpcomingActivities, err = s.Store.CountActivities(ctx, store.ActivityFilter{Status: &active, From: &now}); err != nil {
		return view, err
	}
	if view.RecentRegistrations, err = s.Store.ListRegistrations(ctx, store.RegistrationFilter{UserID: caller.UserID, Limit: 3}); err != nil {
		return view, err
	}
	view.RecentAttendance = []models.AttendanceRecord{}
	for rec, err := range s.Store.AttendanceRecords(ctx, store.AttendanceFilter{UserID: caller.UserID, Limit: 3}) {
		if err != nil {
			return view, err
		}
		view.RecentAttendance = append(view.RecentAttendance, rec)
	}
	return view, nil
}
