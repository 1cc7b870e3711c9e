package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/rabbit"
	"indorunners-backend-go/internal/store"

	"github.com/google/uuid"
)

// Registrant is the person being registered and the contact details kept
// with the registration.
type Registrant struct {
	Identity              models.Identity
	FullName              string
	Email                 string
	Phone                 *string
	BirthDate             *time.Time
	Gender                *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	SpecialNeeds          *string
	ShirtSize             *string
}

type SubmitRegistration struct {
	EventID        string
	Registrant     Registrant
	PaymentProofID string
}

type RegistrationQuery struct {
	EventID string
	Status  string
}

type RegistrationService struct {
	Deps
}

func NewRegistrationService(d Deps) *RegistrationService {
	return &RegistrationService{Deps: d.withDefaults()}
}

// RegistrationEvent is the payload of registration lifecycle messages.
type RegistrationEvent struct {
	RegistrationID string                    `json:"registrationId"`
	Code           string                    `json:"registrationCode"`
	EventID        string                    `json:"eventId"`
	Status         models.RegistrationStatus `json:"status"`
	PreviousStatus models.RegistrationStatus `json:"previousStatus,omitempty"`
	ActorID        string                    `json:"actorId,omitempty"`
	At             time.Time                 `json:"at"`
}

// Submit registers someone for an event. Checks run in order: event
// active, deadline, duplicate identity, capacity, payment proof.
func (s *RegistrationService) Submit(ctx context.Context, caller policy.Caller, in SubmitRegistration) (models.Registration, error) {
	reg, member, err := s.prepare(caller, in)
	if err != nil {
		return models.Registration{}, err
	}

	err = s.Store.InTx(ctx, func(q *store.Queries) error {
		event, err := q.LockEvent(ctx, in.EventID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if event.Status != models.OccasionActive {
			return apperr.ErrEventNotFound
		}

		now := s.Now()
		if !event.RegistrationOpen(now) {
			return apperr.ErrRegistrationClosed
		}

		if member {
			if err := fillFromProfile(ctx, q, &reg); err != nil {
				return err
			}
		}

		exists, err := q.ActiveRegistrationExists(ctx, event.ID, reg.IdentityKey)
		if err != nil {
			return err
		}
		if exists {
			return apperr.ErrDuplicateRegistration
		}

		if event.MaxParticipants != nil {
			count, err := q.CountActiveRegistrations(ctx, event.ID)
			if err != nil {
				return err
			}
			if count >= *event.MaxParticipants {
				return apperr.ErrEventFull
			}
		}

		if err := checkPaymentProof(ctx, q, caller, event, reg.PaymentProofID, member); err != nil {
			return err
		}

		reg.ID = uuid.NewString()
		reg.EventID = event.ID
		reg.Code = registrationCode(event.ID, now)
		reg.Status = models.InitialRegistrationStatus(event)
		reg.RegisteredAt = now
		reg.UpdatedAt = now
		if err := q.InsertRegistration(ctx, reg); err != nil {
			switch {
			case store.IsUniqueViolationOn(err, "payment_proof_id"):
				return apperr.ErrPaymentProofInUse
			case store.IsUniqueViolation(err):
				return apperr.ErrDuplicateRegistration
			case store.IsForeignKeyViolation(err):
				return apperr.NotFound("Event, member or payment proof no longer exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Registration{}, store.Translate(err, "submit registration")
	}

	s.Log.Info().Str("registration_id", reg.ID).Str("event_id", reg.EventID).
		Str("status", string(reg.Status)).Msg("registration submitted")
	s.publish(ctx, rabbit.KeyRegistrationSubmitted, RegistrationEvent{
		RegistrationID: reg.ID,
		Code:           reg.Code,
		EventID:        reg.EventID,
		Status:         reg.Status,
		ActorID:        caller.UserID,
		At:             reg.RegisteredAt,
	})
	return reg, nil
}

// prepare authorizes the caller for the identity's flow and builds the row
// from the request. It reports whether this is the member flow.
func (s *RegistrationService) prepare(caller policy.Caller, in SubmitRegistration) (models.Registration, bool, error) {
	r := in.Registrant
	reg := models.Registration{
		FullName:              strings.TrimSpace(r.FullName),
		Email:                 models.NormalizeEmail(r.Email),
		Phone:                 trimmedPtr(r.Phone),
		BirthDate:             r.BirthDate,
		Gender:                trimmedPtr(r.Gender),
		EmergencyContactName:  trimmedPtr(r.EmergencyContactName),
		EmergencyContactPhone: trimmedPtr(r.EmergencyContactPhone),
		SpecialNeeds:          trimmedPtr(r.SpecialNeeds),
		ShirtSize:             trimmedPtr(r.ShirtSize),
	}
	if proof := strings.TrimSpace(in.PaymentProofID); proof != "" {
		reg.PaymentProofID = &proof
	}
	if strings.TrimSpace(in.EventID) == "" {
		return reg, false, apperr.ErrEventNotFound
	}

	switch id := r.Identity.(type) {
	case models.MemberIdentity:
		if err := s.Policy.Authorize(caller, policy.SubmitMemberRegistration); err != nil {
			return reg, true, err
		}
		if strings.TrimSpace(id.UserID) == "" {
			return reg, true, apperr.Validation("Member identity needs a user id")
		}
		if err := s.Policy.ActOnSubject(caller, id.UserID); err != nil {
			return reg, true, err
		}
		userID := strings.TrimSpace(id.UserID)
		reg.UserID = &userID
		reg.IdentityKey = id.Key()
		return reg, true, nil
	case models.ContactIdentity:
		if err := s.Policy.Authorize(caller, policy.SubmitPublicRegistration); err != nil {
			return reg, false, err
		}
		email := models.NormalizeEmail(id.Email)
		if email == "" {
			return reg, false, apperr.Validation("Email is required")
		}
		if reg.FullName == "" {
			return reg, false, apperr.Validation("Full name is required")
		}
		if reg.Phone == nil {
			return reg, false, apperr.Validation("Phone is required")
		}
		reg.Email = email
		reg.IdentityKey = id.Key()
		return reg, false, nil
	default:
		return reg, false, apperr.Validation("Registrant identity is required")
	}
}

func fillFromProfile(ctx context.Context, q *store.Queries, reg *models.Registration) error {
	user, err := q.FindUser(ctx, *reg.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if reg.FullName == "" {
		reg.FullName = user.Name
	}
	if reg.Email == "" {
		reg.Email = user.Email
	}
	if reg.Phone == nil {
		reg.Phone = user.Phone
	}
	if reg.BirthDate == nil {
		reg.BirthDate = user.BirthDate
	}
	if reg.Gender == nil {
		reg.Gender = user.Gender
	}
	if reg.EmergencyContactName == nil {
		reg.EmergencyContactName = user.EmergencyContact
	}
	if reg.EmergencyContactPhone == nil {
		reg.EmergencyContactPhone = user.EmergencyPhone
	}
	return nil
}

// checkPaymentProof requires a stored proof for paid events on the public
// flow. A reference that does not resolve, or that belongs to another
// member, counts as missing on any flow. A proof backs one live
// registration at a time.
func checkPaymentProof(ctx context.Context, q *store.Queries, caller policy.Caller, event models.Event, proofID *string, member bool) error {
	if proofID == nil {
		if event.RequiresPayment() && !member {
			return apperr.ErrMissingPaymentProof
		}
		return nil
	}
	asset, err := q.FindMediaAsset(ctx, *proofID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrMissingPaymentProof
	}
	if err != nil {
		return err
	}
	if asset.OwnerUserID != nil && !caller.IsAdmin() && *asset.OwnerUserID != caller.UserID {
		return apperr.ErrMissingPaymentProof
	}
	inUse, err := q.PaymentProofInUse(ctx, asset.ID)
	if err != nil {
		return err
	}
	if inUse {
		return apperr.ErrPaymentProofInUse
	}
	return nil
}

func registrationCode(eventID string, at time.Time) string {
	prefix := eventID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "REG-" + strings.ToUpper(prefix) + "-" + strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
}

// Transition moves a registration along the payment lifecycle. Only admins
// may do it; with ownership scoping only the admin who created the event.
func (s *RegistrationService) Transition(ctx context.Context, caller policy.Caller, id string, target models.RegistrationStatus) (models.Registration, error) {
	if err := s.Policy.Authorize(caller, policy.TransitionRegistration); err != nil {
		return models.Registration{}, err
	}
	if !target.Valid() {
		return models.Registration{}, apperr.Validation("Unknown registration status: " + string(target))
	}

	var reg models.Registration
	var previous models.RegistrationStatus
	err := s.Store.InTx(ctx, func(q *store.Queries) error {
		var err error
		reg, err = q.LockRegistration(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.ErrRegistrationNotFound
		}
		if err != nil {
			return err
		}
		event, err := q.FindEvent(ctx, reg.EventID)
		if err != nil {
			return err
		}
		if err := s.Policy.RequireOwner(caller, event.CreatedBy); err != nil {
			return err
		}
		if reg.Status.Terminal() {
			return apperr.Wrap(apperr.KindConflict, apperr.CodeInvalidTransition,
				"Registration is "+string(reg.Status)+" and can no longer change", nil)
		}
		if !reg.Status.CanTransitionTo(target) {
			return apperr.Wrap(apperr.KindConflict, apperr.CodeInvalidTransition,
				"Cannot move registration from "+string(reg.Status)+" to "+string(target), nil)
		}
		now := s.Now()
		n, err := q.CompareAndSetRegistrationStatus(ctx, reg.ID, reg.Status, target, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.ErrInvalidTransition
		}
		previous = reg.Status
		reg.Status = target
		reg.UpdatedAt = now
		return nil
	})
	if err != nil {
		return models.Registration{}, store.Translate(err, "transition registration")
	}

	s.Log.Info().Str("registration_id", reg.ID).Str("from", string(previous)).
		Str("to", string(reg.Status)).Str("actor", caller.UserID).Msg("registration status changed")
	s.publish(ctx, rabbit.KeyRegistrationStatusChanged, RegistrationEvent{
		RegistrationID: reg.ID,
		Code:           reg.Code,
		EventID:        reg.EventID,
		Status:         reg.Status,
		PreviousStatus: previous,
		ActorID:        caller.UserID,
		At:             reg.UpdatedAt,
	})
	return reg, nil
}

// List returns registrations newest first for the admin back office.
func (s *RegistrationService) List(ctx context.Context, caller policy.Caller, query RegistrationQuery) ([]models.RegistrationDetail, error) {
	if err := s.Policy.Authorize(caller, policy.ListRegistrations); err != nil {
		return nil, err
	}
	filter := store.RegistrationFilter{
		EventID:    strings.TrimSpace(query.EventID),
		EventOwner: s.Policy.OwnerFilter(caller),
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status := models.RegistrationStatus(raw)
		if !status.Valid() {
			return nil, apperr.Validation("Unknown registration status: " + raw)
		}
		filter.Status = &status
	}
	items, err := s.Store.ListRegistrations(ctx, filter)
	if err != nil {
		return nil, store.Translate(err, "list registrations")
	}
	return items, nil
}

// ListMine returns the caller's own registrations.
func (s *RegistrationService) ListMine(ctx context.Context, caller policy.Caller) ([]models.RegistrationDetail, error) {
	if err := s.Policy.Authorize(caller, policy.ListOwnRegistrations); err != nil {
		return nil, err
	}
	items, err := s.Store.ListRegistrations(ctx, store.RegistrationFilter{UserID: caller.UserID})
	if err != nil {
		return nil, store.Translate(err, "list registrations")
	}
	return items, nil
}

// Get returns one registration to an admin allowed to manage its event or to
// the member it belongs to.
func (s *RegistrationService) Get(ctx context.Context, caller policy.Caller, id string) (models.RegistrationDetail, error) {
	if caller.IsAnonymous() {
		return models.RegistrationDetail{}, apperr.ErrForbidden
	}
	reg, err := s.Store.FindRegistration(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.RegistrationDetail{}, apperr.ErrRegistrationNotFound
	}
	if err != nil {
		return models.RegistrationDetail{}, store.Translate(err, "find registration")
	}
	if caller.IsAdmin() {
		if err := s.Policy.RequireOwner(caller, reg.EventOwner); err != nil {
			return models.RegistrationDetail{}, err
		}
		return reg, nil
	}
	if reg.UserID == nil || *reg.UserID != caller.UserID {
		return models.RegistrationDetail{}, apperr.ErrForbidden
	}
	return reg, nil
}
