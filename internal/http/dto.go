package httpapi

import (
	"strings"
	"time"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/services"
)

const dateLayout = "2006-01-02"

type UserDTO struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	Role             string  `json:"role"`
	Phone            *string `json:"phone,omitempty"`
	BirthDate        *string `json:"birthDate,omitempty"`
	Gender           *string `json:"gender,omitempty"`
	EmergencyContact *string `json:"emergencyContact,omitempty"`
	EmergencyPhone   *string `json:"emergencyPhone,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

func toUserDTO(u models.User) UserDTO {
	return UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             string(u.Role),
		Phone:            u.Phone,
		BirthDate:        formatDate(u.BirthDate),
		Gender:           u.Gender,
		EmergencyContact: u.EmergencyContact,
		EmergencyPhone:   u.EmergencyPhone,
		CreatedAt:        u.CreatedAt.Format(time.RFC3339),
	}
}

type EventDTO struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          *string   `json:"description,omitempty"`
	EventDate            time.Time `json:"eventDate"`
	RegistrationDeadline time.Time `json:"registrationDeadline"`
	Location             string    `json:"location"`
	MaxParticipants      *int      `json:"maxParticipants,omitempty"`
	RegistrationFee      int64     `json:"registrationFee"`
	Category             *string   `json:"category,omitempty"`
	Distance             *string   `json:"distance,omitempty"`
	ImageURL             *string   `json:"imageUrl,omitempty"`
	Status               string    `json:"status"`
	RegisteredCount      *int      `json:"registeredCount,omitempty"`
	RegistrationOpen     bool      `json:"registrationOpen"`
	CreatedBy            string    `json:"createdBy,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func toEventDTO(e models.Event, now time.Time) EventDTO {
	return EventDTO{
		ID:                   e.ID,
		Title:                e.Title,
		Description:          e.Description,
		EventDate:            e.EventDate,
		RegistrationDeadline: e.RegistrationDeadline,
		Location:             e.Location,
		MaxParticipants:      e.MaxParticipants,
		RegistrationFee:      e.RegistrationFee,
		Category:             e.Category,
		Distance:             e.Distance,
		ImageURL:             e.ImageURL,
		Status:               string(e.Status),
		RegistrationOpen:     e.Status == models.OccasionActive && e.RegistrationOpen(now),
		CreatedBy:            e.CreatedBy,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func toEventSummaryDTO(e models.EventSummary, now time.Time, admin bool) EventDTO {
	dto := toEventDTO(e.Event, now)
	count := e.RegisteredCount
	dto.RegisteredCount = &count
	if !admin {
		dto.CreatedBy = ""
	}
	return dto
}

type ActivityDTO struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	ActivityDate    time.Time `json:"activityDate"`
	Location        *string   `json:"location,omitempty"`
	Type            string    `json:"activityType"`
	MaxParticipants *int      `json:"maxParticipants,omitempty"`
	Status          string    `json:"status"`
	AttendanceCount *int      `json:"attendanceCount,omitempty"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toActivityDTO(a models.Activity) ActivityDTO {
	return ActivityDTO{
		ID:              a.ID,
		Title:           a.Title,
		Description:     a.Description,
		ActivityDate:    a.ActivityDate,
		Location:        a.Location,
		Type:            string(a.Type),
		MaxParticipants: a.MaxParticipants,
		Status:          string(a.Status),
		CreatedBy:       a.CreatedBy,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toActivitySummaryDTO(a models.ActivitySummary) ActivityDTO {
	dto := toActivityDTO(a.Activity)
	count := a.AttendanceCount
	dto.AttendanceCount = &count
	return dto
}

type RegistrationDTO struct {
	ID                    string    `json:"id"`
	RegistrationCode      string    `json:"registrationCode"`
	EventID               string    `json:"eventId"`
	UserID                *string   `json:"userId,omitempty"`
	FullName              string    `json:"fullName"`
	Email                 string    `json:"email"`
	Phone                 *string   `json:"phone,omitempty"`
	BirthDate             *string   `json:"birthDate,omitempty"`
	Gender                *string   `json:"gender,omitempty"`
	EmergencyContactName  *string   `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone *string   `json:"emergencyContactPhone,omitempty"`
	SpecialNeeds          *string   `json:"specialNeeds,omitempty"`
	ShirtSize             *string   `json:"shirtSize,omitempty"`
	PaymentProofID        *string   `json:"paymentProofId,omitempty"`
	PaymentProofURL       *string   `json:"paymentProofUrl,omitempty"`
	Status                string    `json:"status"`
	RegisteredAt          time.Time `json:"registeredAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
	EventTitle            string    `json:"eventTitle,omitempty"`
	EventDate             *string   `json:"eventDate,omitempty"`
	EventLocation         string    `json:"eventLocation,omitempty"`
	RegistrationFee       *int64    `json:"registrationFee,omitempty"`
}

func toRegistrationDTO(r models.Registration) RegistrationDTO {
	dto := RegistrationDTO{
		ID:                    r.ID,
		RegistrationCode:      r.Code,
		EventID:               r.EventID,
		UserID:                r.UserID,
		FullName:              r.FullName,
		Email:                 r.Email,
		Phone:                 r.Phone,
		BirthDate:             formatDate(r.BirthDate),
		Gender:                r.Gender,
		EmergencyContactName:  r.EmergencyContactName,
		EmergencyContactPhone: r.EmergencyContactPhone,
		SpecialNeeds:          r.SpecialNeeds,
		ShirtSize:             r.ShirtSize,
		PaymentProofID:        r.PaymentProofID,
		Status:                string(r.Status),
		RegisteredAt:          r.RegisteredAt,
		UpdatedAt:             r.UpdatedAt,
	}
	if r.PaymentProofID != nil {
		url := assetURL(*r.PaymentProofID)
		dto.PaymentProofURL = &url
	}
	return dto
}

func toRegistrationDetailDTO(r models.RegistrationDetail) RegistrationDTO {
	dto := toRegistrationDTO(r.Registration)
	dto.EventTitle = r.EventTitle
	dto.EventDate = formatDate(&r.EventDate)
	dto.EventLocation = r.EventLocation
	fee := r.RegistrationFee
	dto.RegistrationFee = &fee
	return dto
}

func toRegistrationList(items []models.RegistrationDetail) []RegistrationDTO {
	out := make([]RegistrationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toRegistrationDetailDTO(item))
	}
	return out
}

type AttendanceDTO struct {
	ID             string    `json:"id"`
	ActivityID     *string   `json:"activityId,omitempty"`
	EventID        *string   `json:"eventId,omitempty"`
	UserID         string    `json:"userId"`
	Status         string    `json:"status"`
	Notes          *string   `json:"notes,omitempty"`
	RecordedBy     string    `json:"recordedBy"`
	AttendanceDate time.Time `json:"attendanceDate"`
	UserName       string    `json:"userName,omitempty"`
	UserEmail      string    `json:"userEmail,omitempty"`
	OccasionTitle  string    `json:"occasionTitle,omitempty"`
	OccasionType   string    `json:"occasionType,omitempty"`
}

func toAttendanceDTO(a models.Attendance) AttendanceDTO {
	return AttendanceDTO{
		ID:             a.ID,
		ActivityID:     a.ActivityID,
		EventID:        a.EventID,
		UserID:         a.UserID,
		Status:         string(a.Status),
		Notes:          a.Notes,
		RecordedBy:     a.RecordedBy,
		AttendanceDate: a.AttendanceDate,
	}
}

func toAttendanceRecordDTO(a models.AttendanceRecord) AttendanceDTO {
	dto := toAttendanceDTO(a.Attendance)
	dto.UserName = a.UserName
	dto.UserEmail = a.UserEmail
	dto.OccasionTitle = a.OccasionTitle
	dto.OccasionType = a.OccasionType
	return dto
}

type AssetDTO struct {
	AssetID     string `json:"assetId"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}

type SignupRequest struct {
	Email            string  `json:"email" validate:"required,email,max=255"`
	Password         string  `json:"password" validate:"required,min=8,max=128"`
	Name             string  `json:"name" validate:"notblank,max=120"`
	Phone            *string `json:"phone" validate:"omitempty,phone"`
	BirthDate        *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	Gender           *string `json:"gender" validate:"omitempty,max=20"`
	EmergencyContact *string `json:"emergencyContact" validate:"omitempty,max=120"`
	EmergencyPhone   *string `json:"emergencyPhone" validate:"omitempty,phone"`
}

func (req SignupRequest) input() services.SignupInput {
	return services.SignupInput{
		Email:            req.Email,
		Password:         req.Password,
		Name:             req.Name,
		Phone:            req.Phone,
		BirthDate:        parseDate(req.BirthDate),
		Gender:           req.Gender,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
	}
}

type SetupAdminRequest struct {
	SetupKey string `json:"setupKey"`
	SignupRequest
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresAt    int64   `json:"expiresAt"`
	User         UserDTO `json:"user"`
}

type EventRequest struct {
	Title                string    `json:"title" validate:"notblank,max=200"`
	Description          *string   `json:"description" validate:"omitempty,max=5000"`
	EventDate            time.Time `json:"eventDate" validate:"required"`
	RegistrationDeadline time.Time `json:"registrationDeadline" validate:"required"`
	Location             string    `json:"location" validate:"notblank,max=200"`
	MaxParticipants      *int      `json:"maxParticipants" validate:"omitempty,gt=0"`
	RegistrationFee      int64     `json:"registrationFee" validate:"gte=0"`
	Category             *string   `json:"category" validate:"omitempty,max=50"`
	Distance             *string   `json:"distance" validate:"omitempty,max=50"`
	ImageURL             *string   `json:"imageUrl" validate:"omitempty,url"`
	Status               string    `json:"status" validate:"omitempty,oneof=active completed cancelled"`
}

func (req EventRequest) input() services.EventInput {
	return services.EventInput{
		Title:                req.Title,
		Description:          req.Description,
		EventDate:            req.EventDate,
		RegistrationDeadline: req.RegistrationDeadline,
		Location:             req.Location,
		MaxParticipants:      req.MaxParticipants,
		RegistrationFee:      req.RegistrationFee,
		Category:             req.Category,
		Distance:             req.Distance,
		ImageURL:             req.ImageURL,
		Status:               models.OccasionStatus(req.Status),
	}
}

type ActivityRequest struct {
	Title           string    `json:"title" validate:"notblank,max=200"`
	Description     *string   `json:"description" validate:"omitempty,max=5000"`
	ActivityDate    time.Time `json:"activityDate" validate:"required"`
	Location        *string   `json:"location" validate:"omitempty,max=200"`
	Type            string    `json:"activityType" validate:"omitempty,oneof=routine special"`
	MaxParticipants *int      `json:"maxParticipants" validate:"omitempty,gt=0"`
	Status          string    `json:"status" validate:"omitempty,oneof=active completed cancelled"`
}

func (req ActivityRequest) input() services.ActivityInput {
	return services.ActivityInput{
		Title:           req.Title,
		Description:     req.Description,
		ActivityDate:    req.ActivityDate,
		Location:        req.Location,
		Type:            models.ActivityType(req.Type),
		MaxParticipants: req.MaxParticipants,
		Status:          models.OccasionStatus(req.Status),
	}
}

// RegistrationRequest is shared by the public form and the member flow;
// the public flow additionally needs a name and an email.
type RegistrationRequest struct {
	FullName              string  `json:"fullName" validate:"max=120"`
	Email                 string  `json:"email" validate:"omitempty,email,max=255"`
	Phone                 *string `json:"phone" validate:"omitempty,phone"`
	BirthDate             *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	Gender                *string `json:"gender" validate:"omitempty,max=20"`
	EmergencyContactName  *string `json:"emergencyContactName" validate:"omitempty,max=120"`
	EmergencyContactPhone *string `json:"emergencyContactPhone" validate:"omitempty,phone"`
	SpecialNeeds          *string `json:"specialNeeds" validate:"omitempty,max=1000"`
	ShirtSize             *string `json:"shirtSize" validate:"omitempty,oneof=XS S M L XL XXL"`
	PaymentProofID        string  `json:"paymentProofId" validate:"omitempty,uuid"`
}

func (req RegistrationRequest) registrant(identity models.Identity) services.Registrant {
	return services.Registrant{
		Identity:              identity,
		FullName:              req.FullName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		BirthDate:             parseDate(req.BirthDate),
		Gender:                req.Gender,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		SpecialNeeds:          req.SpecialNeeds,
		ShirtSize:             req.ShirtSize,
	}
}

func (req RegistrationRequest) requirePublicFields() error {
	if strings.TrimSpace(req.FullName) == "" {
		return apperr.Validation("Field is required: fullName")
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperr.Validation("Field is required: email")
	}
	if req.Phone == nil || strings.TrimSpace(*req.Phone) == "" {
		return apperr.Validation("Field is required: phone")
	}
	return nil
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending_payment payment_verified confirmed cancelled"`
}

type AttendanceRequest struct {
	ActivityID string  `json:"activityId" validate:"omitempty,max=64"`
	EventID    string  `json:"eventId" validate:"omitempty,max=64"`
	UserID     string  `json:"userId" validate:"omitempty,max=64"`
	Status     string  `json:"status" validate:"omitempty,oneof=present absent late"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

func formatDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	formatted := t.Format(dateLayout)
	return &formatted
}

// parseDate reads YYYY-MM-DD; the tag validation has already rejected
// other shapes.
func parseDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil
	}
	return &parsed
}

func assetURL(assetID string) string {
	return "/api/media/assets/" + assetID + "/content"
}
